package game

import (
	"github.com/akapranchikova/quizzz/internal/domain"
)

type RandomEvent struct {
	Id             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Kind           EffectKind        `json:"kind"`
	Effect         string            `json:"effect"`
	Target         domain.TargetMode `json:"target"`
	RequiresAction bool              `json:"requiresAction"`
}

// ActiveEvent is the event rolled for the current round.
type ActiveEvent struct {
	RandomEvent
	TargetPlayerIds []string `json:"targetPlayerIds"`
}

var randomEvents = []RandomEvent{
	{Id: "ice", Title: "Ice Block", Description: "Frozen solid. Break the ice before you can answer.", Kind: KindMalus, Effect: EffectIce, Target: domain.TargetOne, RequiresAction: true},
	{Id: "mud", Title: "Mud Splash", Description: "Wipe the mud off your screen to answer.", Kind: KindMalus, Effect: EffectMud, Target: domain.TargetOne, RequiresAction: true},
	{Id: "chaos_shuffle", Title: "Chaos Shuffle", Description: "Your answer buttons get scrambled.", Kind: KindMalus, Effect: EffectChaosShuffle, Target: domain.TargetOne},
	{Id: "double_points", Title: "Lucky Star", Description: "Double points on this question.", Kind: KindBuff, Effect: EffectDoublePoints, Target: domain.TargetOne},
	{Id: "event_shield", Title: "Guardian", Description: "The next attack against you bounces off.", Kind: KindBuff, Effect: EffectEventShield, Target: domain.TargetOne},
	{Id: "sync_bonus", Title: "Team Spirit", Description: "Everyone right means a bonus for everyone.", Kind: KindBuff, Effect: EffectSyncBonus, Target: domain.TargetAll},
	{Id: "speed_rush", Title: "Speed Rush", Description: "Answer within three seconds for extra points.", Kind: KindBuff, Effect: EffectSpeedRush, Target: domain.TargetAll},
}

// rollRandomEvent runs when random_event is entered.
func (s *Session) rollRandomEvent() {
	s.activeEvent = nil
	if s.rng.Float64() >= s.settings.RandomEventChance {
		return
	}
	def := randomEvents[s.rng.IntN(len(randomEvents))]
	candidates := s.registry.active()
	if len(candidates) == 0 {
		return
	}
	targets := candidates
	if def.Target == domain.TargetOne {
		targets = []*player{candidates[s.rng.IntN(len(candidates))]}
	}

	ev := &ActiveEvent{RandomEvent: def, TargetPlayerIds: []string{}}
	impact := &Impact{Source: "event", Effect: def.Effect, TargetPlayerIds: []string{}, At: s.clock().UnixMilli()}
	var applied []*player
	for _, t := range targets {
		ev.TargetPlayerIds = append(ev.TargetPlayerIds, t.id)
		if s.applyEffect(def.Effect, effectSource{eventId: def.Id}, t) {
			applied = append(applied, t)
			impact.TargetPlayerIds = append(impact.TargetPlayerIds, t.id)
		} else {
			impact.Blocked = append(impact.Blocked, t.id)
		}
	}
	s.activeEvent = ev
	s.recentImpact = impact
	for _, t := range applied {
		s.notify(t, EventEventApplied, ev)
	}

	s.logger.Info().Str("event", def.Id).Strs("targets", ev.TargetPlayerIds).Msg("random event")
}

func (s *Session) clearEventLock(p *player) {
	if p.eventLock == nil {
		return
	}
	lockType := p.eventLock.Type
	p.eventLock = nil
	s.notify(p, EventLockCleared, lockClearedNotice{Type: lockType})
	s.dirty = true
}
