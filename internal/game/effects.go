package game

import (
	"slices"

	"github.com/akapranchikova/quizzz/internal/catalog"
	"github.com/akapranchikova/quizzz/internal/domain"
)

type EffectKind string

const (
	KindBuff    EffectKind = "buff"
	KindMalus   EffectKind = "malus"
	KindPassive EffectKind = "passive"
)

const (
	EffectFifty        = "fifty"
	EffectShuffleEnemy = "shuffle_enemy"
	EffectFreezeEnemy  = "freeze_enemy"
	EffectMudEnemy     = "mud_enemy"
	EffectDoublePoints = "double_points"
	EffectSyncBonus    = "sync_bonus"
	EffectShield       = "shield"
	EffectIce          = "ice"
	EffectMud          = "mud"
	EffectChaosShuffle = "chaos_shuffle"
	EffectEventShield  = "event_shield"
	EffectSpeedRush    = "speed_rush"
)

type effectSpec struct {
	kind   EffectKind
	target domain.TargetMode
}

// effectTable covers abilities and random events alike.
var effectTable = map[string]effectSpec{
	EffectFifty:        {KindBuff, domain.TargetSelf},
	EffectShuffleEnemy: {KindMalus, domain.TargetOne},
	EffectFreezeEnemy:  {KindMalus, domain.TargetOne},
	EffectMudEnemy:     {KindMalus, domain.TargetOne},
	EffectDoublePoints: {KindBuff, domain.TargetSelf},
	EffectSyncBonus:    {KindBuff, domain.TargetAll},
	EffectShield:       {KindPassive, domain.TargetSelf},
	EffectIce:          {KindMalus, domain.TargetOne},
	EffectMud:          {KindMalus, domain.TargetOne},
	EffectChaosShuffle: {KindMalus, domain.TargetOne},
	EffectEventShield:  {KindBuff, domain.TargetOne},
	EffectSpeedRush:    {KindBuff, domain.TargetAll},
}

// Impact is the last visible effect, shown by the screen.
type Impact struct {
	Source          string   `json:"source"`
	Effect          string   `json:"effect"`
	FromPlayerId    string   `json:"fromPlayerId,omitempty"`
	TargetPlayerIds []string `json:"targetPlayerIds"`
	Blocked         []string `json:"blockedPlayerIds,omitempty"`
	At              int64    `json:"at"`
}

type fiftyNotice struct {
	AllowedOptions []string `json:"allowedOptions"`
}

type shuffleNotice struct {
	Order []string `json:"order"`
	From  string   `json:"from,omitempty"`
}

type freezeNotice struct {
	DurationMs int64  `json:"durationMs"`
	From       string `json:"from"`
}

type fromNotice struct {
	From string `json:"from,omitempty"`
}

type shieldNotice struct {
	From   string `json:"from"`
	Effect string `json:"effect"`
}

type blockedAbilityNotice struct {
	TargetPlayerId string `json:"targetPlayerId"`
	Reason         string `json:"reason"`
}

type eventShieldedNotice struct {
	EventId string `json:"eventId"`
}

type blockedNotice struct {
	Reason string `json:"reason"`
}

type lockClearedNotice struct {
	Type string `json:"type"`
}

func abilityUses(cat *catalog.Catalog, characterId string) map[string]int {
	uses := map[string]int{}
	if a, ok := cat.Ability(characterId); ok {
		uses[a.Id] = a.UsesPerGame
	}
	return uses
}

// effectSource is the player or the random event an effect came from.
type effectSource struct {
	from    *player
	eventId string
}

func (s *Session) useAbility(p *player, req abilityRequest) {
	if p.preparedForQuestion {
		return
	}
	ability, ok := s.catalog().Ability(p.characterId)
	if !ok || ability.Id != req.AbilityId || p.abilityUses[ability.Id] <= 0 {
		return
	}
	effect := ability.EffectId()
	rule, ok := effectTable[effect]
	if !ok || rule.kind == KindPassive {
		return
	}
	mode := ability.Target
	if mode == "" {
		mode = rule.target
	}

	var targets []*player
	switch mode {
	case domain.TargetSelf:
		targets = []*player{p}
	case domain.TargetOne:
		t, ok := s.registry.get(req.TargetPlayerId)
		if !ok || t == p || !t.isActive() {
			return
		}
		targets = []*player{t}
	case domain.TargetAll:
		for _, t := range s.registry.active() {
			if rule.kind == KindMalus && t == p {
				continue
			}
			targets = append(targets, t)
		}
	default:
		return
	}

	p.abilityUses[ability.Id]--
	p.preparedForQuestion = true
	s.preQuestionReady[p.id] = true

	impact := &Impact{Source: "ability", Effect: effect, FromPlayerId: p.id, TargetPlayerIds: []string{}, At: s.clock().UnixMilli()}
	for _, t := range targets {
		if s.applyEffect(effect, effectSource{from: p}, t) {
			impact.TargetPlayerIds = append(impact.TargetPlayerIds, t.id)
		} else {
			impact.Blocked = append(impact.Blocked, t.id)
		}
	}
	s.recentImpact = impact
	s.dirty = true

	s.logger.Info().Str("player", p.id).Str("ability", ability.Id).Int("targets", len(targets)).Msg("ability used")
	s.checkEarlyAdvance()
}

// absorbWithShield consumes the target's event shield or its standing shield
// ability. It reports whether the effect was absorbed.
func (s *Session) absorbWithShield(t *player) bool {
	if t.effects.EventShield {
		t.effects.EventShield = false
		return true
	}
	a, ok := s.catalog().Ability(t.characterId)
	if !ok || a.EffectId() != EffectShield || t.shieldConsumed || t.abilityUses[a.Id] <= 0 {
		return false
	}
	t.abilityUses[a.Id]--
	t.shieldConsumed = true
	return true
}

// applyEffect reports false when a shield absorbed it.
func (s *Session) applyEffect(effect string, src effectSource, t *player) bool {
	if effectTable[effect].kind == KindMalus && s.absorbWithShield(t) {
		if src.from != nil {
			s.notify(t, EventShieldTriggered, shieldNotice{From: src.from.id, Effect: effect})
			s.notify(src.from, EventAbilityBlocked, blockedAbilityNotice{TargetPlayerId: t.id, Reason: "shield"})
		} else {
			s.notify(t, EventEventShielded, eventShieldedNotice{EventId: src.eventId})
		}
		return false
	}

	fromId := ""
	if src.from != nil {
		fromId = src.from.id
	}
	switch effect {
	case EffectFifty:
		t.pending.allowed = s.fiftyOptions()
	case EffectShuffleEnemy:
		t.pending.order = s.shuffledOrder()
		t.pending.orderEvent = EventAbilityShuffle
		t.pending.orderFrom = fromId
	case EffectChaosShuffle:
		t.pending.order = s.shuffledOrder()
		t.pending.orderEvent = EventEventShuffle
		t.pending.orderFrom = ""
	case EffectFreezeEnemy:
		t.pending.freezeFor = s.settings.FreezeDuration
		t.pending.freezeFrom = fromId
	case EffectMudEnemy:
		t.eventLock = &EventLock{Type: EffectMud}
		s.notify(t, EventAbilityMud, fromNotice{From: fromId})
	case EffectMud, EffectIce:
		t.eventLock = &EventLock{Type: effect}
	case EffectDoublePoints:
		t.effects.DoublePoints = true
		if src.from != nil {
			s.notify(t, EventAbilityDouble, fromNotice{})
		}
	case EffectEventShield:
		t.effects.EventShield = true
	case EffectSyncBonus:
		s.allCorrectBonusActive = true
	case EffectSpeedRush:
		t.effects.SpeedBonusReady = true
	}
	return true
}

func (s *Session) fiftyOptions() []string {
	q := s.nextQuestion
	if q == nil {
		return nil
	}
	var wrong []string
	for _, o := range q.Options {
		if o.Id != q.CorrectOptionId {
			wrong = append(wrong, o.Id)
		}
	}
	s.rng.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
	removed := wrong[:min(2, len(wrong))]

	allowed := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if !slices.Contains(removed, o.Id) {
			allowed = append(allowed, o.Id)
		}
	}
	return allowed
}

// shuffledOrder never returns the original order when there is more than one option.
func (s *Session) shuffledOrder() []string {
	q := s.nextQuestion
	if q == nil {
		return nil
	}
	original := q.OptionIds()
	order := slices.Clone(original)
	s.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	if len(order) > 1 && slices.Equal(order, original) {
		order = append(order[1:], order[0])
	}
	return order
}
