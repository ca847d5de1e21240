package game

import (
	"time"

	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/akapranchikova/quizzz/internal/minigame"
	"github.com/akapranchikova/quizzz/internal/scoring"
)

type playerView struct {
	Id                  string         `json:"id"`
	Nickname            string         `json:"nickname"`
	CharacterId         string         `json:"characterId"`
	Score               int            `json:"score"`
	Status              Status         `json:"status"`
	Ready               bool           `json:"ready"`
	AbilityUses         map[string]int `json:"abilityUses"`
	ShieldConsumed      bool           `json:"shieldConsumed"`
	EventLock           *EventLock     `json:"eventLock"`
	StatusEffects       StatusEffects  `json:"statusEffects"`
	PreparedForQuestion bool           `json:"preparedForQuestion"`
	LastAnswer          *LastAnswer    `json:"lastAnswer"`
	FrozenUntil         *int64         `json:"frozenUntil"`
	Eligible            bool           `json:"eligible"`
}

type miniGameView struct {
	Type minigame.Type `json:"type"`
	Data any           `json:"data"`
}

type miniGameStateView struct {
	Progress  map[string]minigame.Progress `json:"progress"`
	StartedAt *int64                       `json:"startedAt"`
	EndsAt    *int64                       `json:"endsAt"`
	Finished  bool                         `json:"finished"`
	Leaders   []minigame.Result            `json:"leaders"`
}

type snapshot struct {
	Phase                 Phase              `json:"phase"`
	PhaseStartedAt        *int64             `json:"phaseStartedAt"`
	PhaseEndsAt           *int64             `json:"phaseEndsAt"`
	ServerTime            int64              `json:"serverTime"`
	RoundNumber           int                `json:"roundNumber"`
	MaxRounds             int                `json:"maxRounds"`
	MinPlayers            int                `json:"minPlayers"`
	ActiveCategoryId      *string            `json:"activeCategoryId"`
	Categories            []domain.Category  `json:"categories"`
	CategoryOptions       []domain.Category  `json:"categoryOptions"`
	Characters            []domain.Character `json:"characters"`
	Players               []playerView       `json:"players"`
	CurrentQuestion       *domain.Question   `json:"currentQuestion"`
	QuestionStartTime     *int64             `json:"questionStartTime"`
	AnswerStats           map[string]int     `json:"answerStats"`
	Leaderboard           []scoring.Standing `json:"leaderboard"`
	UsedQuestionCount     int                `json:"usedQuestionCount"`
	TotalQuestions        int                `json:"totalQuestions"`
	ActiveEvent           *ActiveEvent       `json:"activeEvent"`
	RandomEventChance     float64            `json:"randomEventChance"`
	AllCorrectBonusActive bool               `json:"allCorrectBonusActive"`
	CategoryVotes         int                `json:"categoryVotes"`
	CategoryVoteStats     map[string]int     `json:"categoryVoteStats"`
	PreQuestionReady      map[string]bool    `json:"preQuestionReady"`
	EligiblePlayerIds     []string           `json:"eligiblePlayerIds"`
	RecentImpact          *Impact            `json:"recentImpact"`
	ActiveMiniGame        *miniGameView      `json:"activeMiniGame"`
	MiniGameState         *miniGameStateView `json:"miniGameState"`
}

func unixMilli(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func (s *Session) revealing() bool {
	return s.phase == PhaseAnswerReveal || s.phase == PhaseScore
}

// buildSnapshot renders the state for viewer, which is nil for screens and
// admin connections.
func (s *Session) buildSnapshot(viewer *player) snapshot {
	cat := s.catalog()
	snap := snapshot{
		Phase:                 s.phase,
		PhaseStartedAt:        unixMilli(s.phaseStartedAt),
		PhaseEndsAt:           unixMilli(s.phaseEndsAt),
		ServerTime:            s.clock().UnixMilli(),
		RoundNumber:           s.roundNumber,
		MaxRounds:             s.settings.MaxRounds,
		MinPlayers:            s.settings.MinPlayers,
		Categories:            cat.Categories(),
		CategoryOptions:       s.categoryOptions,
		Characters:            cat.Characters(),
		Players:               make([]playerView, 0, len(s.registry.all())),
		QuestionStartTime:     unixMilli(s.questionStartedAt),
		Leaderboard:           s.standings(),
		UsedQuestionCount:     len(s.usedQuestionIds),
		TotalQuestions:        cat.TotalQuestions(),
		ActiveEvent:           s.activeEvent,
		RandomEventChance:     s.settings.RandomEventChance,
		AllCorrectBonusActive: s.allCorrectBonusActive,
		CategoryVotes:         len(s.categoryVotes),
		PreQuestionReady:      s.preQuestionReady,
		EligiblePlayerIds:     s.roster.ids(),
		RecentImpact:          s.recentImpact,
	}
	if s.activeCategoryId != "" {
		id := s.activeCategoryId
		snap.ActiveCategoryId = &id
	}

	if q := s.currentQuestion; q != nil {
		shown := *q
		if !s.revealing() {
			shown = q.Redacted()
		}
		snap.CurrentQuestion = &shown
	}
	if s.revealing() {
		snap.AnswerStats = s.answerStats
	}
	if s.phase != PhaseCategorySelect {
		stats := map[string]int{}
		for _, id := range s.categoryVotes {
			stats[id]++
		}
		snap.CategoryVoteStats = stats
	}

	for _, p := range s.registry.all() {
		snap.Players = append(snap.Players, s.viewPlayer(p, viewer))
	}

	if g := s.miniGame; g != nil {
		snap.ActiveMiniGame = &miniGameView{Type: g.Type, Data: g.Data()}
		state := &miniGameStateView{
			Progress: g.Progress(),
			Finished: s.miniGameFinished,
			Leaders:  s.miniGameLeaders,
		}
		if s.phase == PhaseMiniGame {
			state.StartedAt = unixMilli(s.phaseStartedAt)
			state.EndsAt = unixMilli(s.phaseEndsAt)
		}
		snap.MiniGameState = state
	}
	return snap
}

func (s *Session) viewPlayer(p, viewer *player) playerView {
	v := playerView{
		Id:                  p.id,
		Nickname:            p.nickname,
		CharacterId:         p.characterId,
		Score:               p.score,
		Status:              p.status,
		Ready:               p.ready,
		AbilityUses:         p.abilityUses,
		ShieldConsumed:      p.shieldConsumed,
		EventLock:           p.eventLock,
		StatusEffects:       p.effects,
		PreparedForQuestion: p.preparedForQuestion,
		LastAnswer:          p.lastAnswer,
		FrozenUntil:         unixMilli(p.frozenUntil),
		Eligible:            s.roster != nil && s.roster.has(p.id),
	}
	if p.lastAnswer != nil && s.phase == PhaseQuestion && p != viewer {
		v.LastAnswer = &LastAnswer{}
	}
	return v
}

func (s *Session) encodeState(viewer *player) []byte {
	return encodePacket(ServerPacket{Event: EventState, Data: s.buildSnapshot(viewer)})
}
