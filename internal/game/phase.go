package game

import (
	"fmt"
	"time"
)

type Phase int

const (
	PhaseLobby Phase = iota
	PhaseReady
	PhaseGameStartConfirm
	PhaseRoundIntro
	PhaseCategorySelect
	PhaseCategoryReveal
	PhaseRandomEvent
	PhaseAbility
	PhaseQuestion
	PhaseAnswerReveal
	PhaseScore
	PhaseIntermission
	PhaseMiniGame
	PhaseNextRoundConfirm
	PhaseGameEnd
	phaseCount
)

var phaseNames = [phaseCount]string{
	PhaseLobby:            "lobby",
	PhaseReady:            "ready",
	PhaseGameStartConfirm: "game_start_confirm",
	PhaseRoundIntro:       "round_intro",
	PhaseCategorySelect:   "category_select",
	PhaseCategoryReveal:   "category_reveal",
	PhaseRandomEvent:      "random_event",
	PhaseAbility:          "ability_phase",
	PhaseQuestion:         "question",
	PhaseAnswerReveal:     "answer_reveal",
	PhaseScore:            "score",
	PhaseIntermission:     "intermission",
	PhaseMiniGame:         "mini_game",
	PhaseNextRoundConfirm: "next_round_confirm",
	PhaseGameEnd:          "game_end",
}

func (p Phase) String() string {
	if p < 0 || p >= phaseCount {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	if p < 0 || p >= phaseCount {
		return nil, fmt.Errorf("unknown phase %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

type phaseDef struct {
	// gated phases compute a roster on entry; only roster members act in them.
	gated bool
	// duration returns 0 for phases that wait for players instead of a timer.
	duration func(s *Session) time.Duration
	// onTimeout runs when the armed timer of this phase fires.
	onTimeout func(s *Session)
}

// phaseTable is filled in init because its handlers refer back to it
// through setPhase.
var phaseTable map[Phase]phaseDef

func fixed(pick func(d Durations) time.Duration) func(s *Session) time.Duration {
	return func(s *Session) time.Duration { return pick(s.settings.Durations) }
}

func init() {
	phaseTable = map[Phase]phaseDef{
		PhaseLobby: {},
		PhaseReady: {
			duration:  fixed(func(d Durations) time.Duration { return d.Ready }),
			onTimeout: (*Session).onReadyTimeout,
		},
		PhaseGameStartConfirm: {},
		PhaseRoundIntro: {
			duration:  fixed(func(d Durations) time.Duration { return d.RoundIntro }),
			onTimeout: (*Session).enterCategorySelect,
		},
		PhaseCategorySelect: {
			gated:     true,
			duration:  fixed(func(d Durations) time.Duration { return d.CategorySelect }),
			onTimeout: func(s *Session) { s.resolveCategory("") },
		},
		PhaseCategoryReveal: {
			duration:  fixed(func(d Durations) time.Duration { return d.CategoryReveal }),
			onTimeout: (*Session).enterRandomEvent,
		},
		PhaseRandomEvent: {
			duration:  fixed(func(d Durations) time.Duration { return d.RandomEvent }),
			onTimeout: (*Session).enterAbilityPhase,
		},
		PhaseAbility: {
			gated:     true,
			duration:  fixed(func(d Durations) time.Duration { return d.Ability }),
			onTimeout: (*Session).enterQuestion,
		},
		PhaseQuestion: {
			gated: true,
			duration: func(s *Session) time.Duration {
				if s.nextQuestion == nil {
					return 0
				}
				return time.Duration(s.nextQuestion.TimeLimit()) * time.Second
			},
			onTimeout: (*Session).enterAnswerReveal,
		},
		PhaseAnswerReveal: {
			duration:  fixed(func(d Durations) time.Duration { return d.AnswerReveal }),
			onTimeout: (*Session).enterScore,
		},
		PhaseScore: {
			duration:  fixed(func(d Durations) time.Duration { return d.Score }),
			onTimeout: (*Session).afterScore,
		},
		PhaseIntermission: {
			duration:  fixed(func(d Durations) time.Duration { return d.Intermission }),
			onTimeout: (*Session).enterMiniGame,
		},
		PhaseMiniGame: {
			gated:     true,
			duration:  fixed(func(d Durations) time.Duration { return d.MiniGame }),
			onTimeout: (*Session).finishMiniGame,
		},
		PhaseNextRoundConfirm: {
			duration:  fixed(func(d Durations) time.Duration { return d.NextRoundConfirm }),
			onTimeout: (*Session).startRound,
		},
		PhaseGameEnd: {},
	}
}

func (s *Session) durationFor(p Phase) time.Duration {
	def := phaseTable[p]
	if def.duration == nil {
		return 0
	}
	return def.duration(s)
}

// roster is the frozen set of players allowed to act in a gated phase.
type roster struct {
	order   []string
	members map[string]bool
}

func newRoster(players []*player) *roster {
	r := &roster{members: make(map[string]bool, len(players))}
	for _, p := range players {
		r.order = append(r.order, p.id)
		r.members[p.id] = true
	}
	return r
}

// has is true for everyone outside gated phases.
func (r *roster) has(id string) bool {
	if r == nil {
		return true
	}
	return r.members[id]
}

func (r *roster) ids() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}
