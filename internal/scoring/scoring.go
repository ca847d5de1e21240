package scoring

import (
	"math"
	"slices"

	"github.com/akapranchikova/quizzz/internal/domain"
)

const (
	BasePoints         = 1000
	MinMultiplier      = 0.2
	SpeedBonusPoints   = 200
	SpeedBonusWindowMs = 3000
	SyncBonusPoints    = 300
)

type Rules struct {
	BasePoints         int
	WrongPenalty       int
	SpeedBonusPoints   int
	SpeedBonusWindowMs int64
	SyncBonusPoints    int
}

func DefaultRules() Rules {
	return Rules{
		BasePoints:         BasePoints,
		SpeedBonusPoints:   SpeedBonusPoints,
		SpeedBonusWindowMs: SpeedBonusWindowMs,
		SyncBonusPoints:    SyncBonusPoints,
	}
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// Multiplier decays linearly from 1 at t=0 to MinMultiplier at the deadline.
func Multiplier(answerTimeMs int64, timeLimitSec int) float64 {
	if timeLimitSec <= 0 {
		return 1
	}
	ratio := float64(answerTimeMs) / 1000 / float64(timeLimitSec)
	ratio = min(max(ratio, 0), 1)
	return max(MinMultiplier, round3(1-0.8*ratio))
}

type Answer struct {
	PlayerId        string
	OptionId        string
	AnswerTimeMs    int64
	DoublePoints    bool
	SpeedBonusReady bool
}

type Award struct {
	PlayerId string
	Correct  bool
	Points   int
}

func (r Rules) Score(q domain.Question, a Answer) Award {
	if a.OptionId != q.CorrectOptionId {
		return Award{PlayerId: a.PlayerId, Points: -r.WrongPenalty}
	}
	factor := 1.0
	if a.DoublePoints {
		factor = 2
	}
	points := int(math.Round(float64(r.BasePoints) * Multiplier(a.AnswerTimeMs, q.TimeLimit()) * factor))
	if a.SpeedBonusReady && a.AnswerTimeMs <= r.SpeedBonusWindowMs {
		points += r.SpeedBonusPoints
	}
	return Award{PlayerId: a.PlayerId, Correct: true, Points: points}
}

// ScoreQuestion scores every submitted answer. When syncBonus is set and every
// roster member answered correctly, each of them gets SyncBonusPoints on top.
func (r Rules) ScoreQuestion(q domain.Question, answers []Answer, roster []string, syncBonus bool) []Award {
	awards := make([]Award, 0, len(answers))
	correct := map[string]bool{}
	for _, a := range answers {
		award := r.Score(q, a)
		if award.Correct {
			correct[a.PlayerId] = true
		}
		awards = append(awards, award)
	}

	if !syncBonus || len(roster) == 0 {
		return awards
	}
	for _, id := range roster {
		if !correct[id] {
			return awards
		}
	}
	for i := range awards {
		awards[i].Points += r.SyncBonusPoints
	}
	return awards
}

type Standing struct {
	PlayerId    string `json:"id"`
	Nickname    string `json:"nickname"`
	CharacterId string `json:"characterId,omitempty"`
	Score       int    `json:"score"`
}

// Leaderboard sorts by score descending. Ties keep the input order.
func Leaderboard(entries []Standing) []Standing {
	res := slices.Clone(entries)
	slices.SortStableFunc(res, func(a, b Standing) int {
		return b.Score - a.Score
	})
	return res
}
