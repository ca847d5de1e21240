package domain

import "time"

type MatchStanding struct {
	PlayerId    string `json:"playerId"`
	Nickname    string `json:"nickname"`
	CharacterId string `json:"characterId"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank"`
}

// MatchResult is the final leaderboard of a finished match.
type MatchResult struct {
	Id         string          `json:"id"`
	Rounds     int             `json:"rounds"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Standings  []MatchStanding `json:"standings"`
}
