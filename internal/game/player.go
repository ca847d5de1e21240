package game

import (
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusOffline  Status = "offline"
)

type EventLock struct {
	Type    string `json:"type"`
	Cleared bool   `json:"cleared"`
}

type StatusEffects struct {
	DoublePoints    bool `json:"doublePoints"`
	EventShield     bool `json:"eventShield"`
	SpeedBonusReady bool `json:"speedBonusReady"`
}

// LastAnswer is filled when the answer is accepted and completed at reveal.
type LastAnswer struct {
	OptionId     string `json:"optionId,omitempty"`
	AnswerTimeMs int64  `json:"answerTimeMs"`
	PointsEarned *int   `json:"pointsEarned"`
	Correct      *bool  `json:"correct"`
}

// pendingDelivery holds effects that only make sense once the question is on
// screen. They are applied and sent when the question phase starts.
type pendingDelivery struct {
	freezeFor  time.Duration
	freezeFrom string
	order      []string
	orderEvent string
	orderFrom  string
	allowed    []string
}

type player struct {
	id          string
	nickname    string
	characterId string
	score       int
	status      Status
	ready       bool

	resumeTokenHash string
	connId          string
	joinedAt        time.Time
	lastSeenAt      time.Time
	evictAt         time.Time

	abilityUses         map[string]int
	shieldConsumed      bool
	eventLock           *EventLock
	effects             StatusEffects
	preparedForQuestion bool
	lastAnswer          *LastAnswer
	frozenUntil         time.Time
	pending             pendingDelivery
}

func (p *player) isActive() bool {
	return p.status == StatusActive
}

// resetRound clears everything that only lives for one round.
func (p *player) resetRound() {
	p.eventLock = nil
	p.effects = StatusEffects{}
	p.preparedForQuestion = false
	p.lastAnswer = nil
	p.frozenUntil = time.Time{}
	p.pending = pendingDelivery{}
}

func (p *player) resetMatch(uses map[string]int) {
	p.resetRound()
	p.score = 0
	p.ready = false
	p.shieldConsumed = false
	p.abilityUses = uses
}
