package game

import (
	"context"
	"time"

	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/akapranchikova/quizzz/internal/minigame"
	"github.com/akapranchikova/quizzz/internal/scoring"
	"github.com/google/uuid"
)

// setPhase is the only place the phase changes. onEnter may mutate state but
// must not transition.
func (s *Session) setPhase(phase Phase, duration time.Duration, onEnter func()) {
	now := s.clock()
	prev := s.phase

	s.armed = nil
	s.phase = phase
	s.phaseStartedAt = now
	s.phaseEndsAt = time.Time{}
	if duration > 0 {
		s.phaseEndsAt = now.Add(duration)
	}
	s.roster = nil
	if phaseTable[phase].gated {
		s.roster = newRoster(s.registry.active())
	}
	if onEnter != nil {
		onEnter()
	}
	s.dirty = true
	if duration > 0 {
		s.armed = &phaseTimer{phase: phase, deadline: s.phaseEndsAt}
	}

	s.logger.Info().
		Str("from", prev.String()).
		Str("to", phase.String()).
		Int("round", s.roundNumber).
		Dur("duration", duration).
		Msg("phase changed")
}

func (s *Session) enter(phase Phase, onEnter func()) {
	s.setPhase(phase, s.durationFor(phase), onEnter)
}

func (s *Session) readyCount(players []*player) int {
	n := 0
	for _, p := range players {
		if p.ready {
			n++
		}
	}
	return n
}

// evaluateReadiness runs after every join, resume, disconnect, eviction and
// ready toggle.
func (s *Session) evaluateReadiness() {
	active := s.registry.active()
	quorum := len(active) >= s.settings.MinPlayers
	ready := s.readyCount(active)

	switch s.phase {
	case PhaseLobby, PhaseGameEnd:
		if quorum && ready > 0 {
			s.enter(PhaseReady, nil)
			s.evaluateReadiness()
		}
	case PhaseReady:
		if !quorum {
			s.enter(PhaseLobby, nil)
			return
		}
		if ready == len(active) {
			s.enter(PhaseGameStartConfirm, nil)
		}
	case PhaseGameStartConfirm:
		if !quorum {
			s.enter(PhaseLobby, nil)
		}
	}
}

func (s *Session) onReadyTimeout() {
	active := s.registry.active()
	if len(active) >= s.settings.MinPlayers && s.readyCount(active) >= s.settings.MinPlayers {
		s.enter(PhaseGameStartConfirm, nil)
		return
	}
	s.enter(PhaseLobby, nil)
}

// beginMatch resets every per-match value and starts round one.
func (s *Session) beginMatch() {
	s.registry.removeOffline()
	cat := s.catalog()

	s.matchId = uuid.NewString()
	s.matchStartedAt = s.clock()
	s.roundNumber = 0
	s.usedQuestionIds = map[string]bool{}
	s.recentCategoryIds = nil
	s.miniGameRounds = minigame.Schedule(s.settings.MaxRounds)
	s.rotation = minigame.NewRotation(s.rng)
	for _, p := range s.registry.all() {
		p.resetMatch(abilityUses(cat, p.characterId))
	}

	s.logger.Info().Str("match", s.matchId).Int("players", len(s.registry.all())).Msg("match started")
	s.startRound()
}

func (s *Session) matchOver() bool {
	return s.roundNumber >= s.settings.MaxRounds || !s.catalog().HasUnused(s.usedQuestionIds)
}

func (s *Session) startRound() {
	if s.matchOver() {
		s.endGame()
		return
	}
	s.roundNumber++
	s.enter(PhaseRoundIntro, s.resetRoundState)
}

func (s *Session) resetRoundState() {
	s.categoryOptions = nil
	s.categoryVotes = map[string]string{}
	s.activeCategoryId = ""
	s.nextQuestion = nil
	s.currentQuestion = nil
	s.questionStartedAt = time.Time{}
	s.answers = map[string]submittedAnswer{}
	s.answerStats = map[string]int{}
	s.preQuestionReady = map[string]bool{}
	s.activeEvent = nil
	s.allCorrectBonusActive = false
	s.recentImpact = nil
	s.miniGame = nil
	s.miniGameFinished = false
	s.miniGameLeaders = nil
	for _, p := range s.registry.all() {
		p.resetRound()
	}
}

func (s *Session) enterCategorySelect() {
	s.enter(PhaseCategorySelect, func() {
		s.categoryVotes = map[string]string{}
		s.categoryOptions = s.catalog().CategoryOptions(s.rng, s.settings.CategoryOptions, s.usedQuestionIds, s.recentCategoryIds)
	})
}

// tallyVotes returns the winning category, or "" when there is nothing to pick from.
func (s *Session) tallyVotes() string {
	pool := make([]string, 0, len(s.categoryOptions))
	for _, c := range s.categoryOptions {
		pool = append(pool, c.Id)
	}
	if len(pool) == 0 {
		for _, c := range s.catalog().Categories() {
			pool = append(pool, c.Id)
		}
	}
	if len(pool) == 0 {
		return ""
	}

	counts := map[string]int{}
	for _, id := range s.categoryVotes {
		counts[id]++
	}
	best := 0
	var contenders []string
	for _, id := range pool {
		switch n := counts[id]; {
		case n > best:
			best = n
			contenders = []string{id}
		case n == best && n > 0:
			contenders = append(contenders, id)
		}
	}
	if len(contenders) == 0 {
		contenders = pool
	}
	return contenders[s.rng.IntN(len(contenders))]
}

// resolveCategory ends category_select. forced skips the vote.
func (s *Session) resolveCategory(forced string) {
	winner := forced
	if winner == "" {
		winner = s.tallyVotes()
	}
	q, ok := s.catalog().PickQuestion(s.rng, winner, s.usedQuestionIds)
	if !ok {
		s.logger.Warn().Int("round", s.roundNumber).Msg("no more questions")
		s.activeCategoryId = ""
		s.enter(PhaseNextRoundConfirm, nil)
		return
	}

	s.activeCategoryId = q.CategoryId
	s.nextQuestion = &q
	s.usedQuestionIds[q.Id] = true
	s.recentCategoryIds = append(s.recentCategoryIds, q.CategoryId)
	if n := len(s.recentCategoryIds); n > s.settings.RecentCategories {
		s.recentCategoryIds = s.recentCategoryIds[n-s.settings.RecentCategories:]
	}
	s.enter(PhaseCategoryReveal, nil)
}

func (s *Session) enterRandomEvent() {
	s.enter(PhaseRandomEvent, s.rollRandomEvent)
}

func (s *Session) enterAbilityPhase() {
	s.enter(PhaseAbility, func() {
		s.preQuestionReady = map[string]bool{}
		for _, p := range s.registry.all() {
			p.preparedForQuestion = false
		}
	})
}

// enterQuestion also delivers the effects queued during ability_phase, after
// the question itself is on screen.
func (s *Session) enterQuestion() {
	if s.nextQuestion == nil {
		s.enter(PhaseNextRoundConfirm, nil)
		return
	}
	s.enter(PhaseQuestion, func() {
		now := s.clock()
		s.currentQuestion = s.nextQuestion
		s.nextQuestion = nil
		s.questionStartedAt = now
		s.answers = map[string]submittedAnswer{}
		s.answerStats = map[string]int{}
		for _, p := range s.registry.all() {
			p.lastAnswer = nil
			s.deliverPending(p, now)
		}
	})
}

func (s *Session) deliverPending(p *player, now time.Time) {
	d := p.pending
	p.pending = pendingDelivery{}
	if d.freezeFor > 0 {
		p.frozenUntil = now.Add(d.freezeFor)
		s.notify(p, EventAbilityFreeze, freezeNotice{DurationMs: d.freezeFor.Milliseconds(), From: d.freezeFrom})
	}
	if len(d.order) > 0 {
		s.notify(p, d.orderEvent, shuffleNotice{Order: d.order, From: d.orderFrom})
	}
	if len(d.allowed) > 0 {
		s.notify(p, EventAbilityFifty, fiftyNotice{AllowedOptions: d.allowed})
	}
}

func (s *Session) enterAnswerReveal() {
	roster := s.roster.ids()
	s.enter(PhaseAnswerReveal, func() { s.scoreQuestion(roster) })
}

func (s *Session) scoreQuestion(roster []string) {
	q := s.currentQuestion
	if q == nil {
		return
	}
	answers := make([]scoring.Answer, 0, len(s.answers))
	for _, p := range s.registry.all() {
		a, ok := s.answers[p.id]
		if !ok {
			continue
		}
		answers = append(answers, scoring.Answer{
			PlayerId:        p.id,
			OptionId:        a.optionId,
			AnswerTimeMs:    a.answerTimeMs,
			DoublePoints:    p.effects.DoublePoints,
			SpeedBonusReady: p.effects.SpeedBonusReady,
		})
	}

	awards := s.settings.Rules.ScoreQuestion(*q, answers, roster, s.allCorrectBonusActive)
	for _, award := range awards {
		p, ok := s.registry.get(award.PlayerId)
		if !ok {
			continue
		}
		p.score += award.Points
		if p.lastAnswer != nil {
			points, correct := award.Points, award.Correct
			p.lastAnswer.PointsEarned = &points
			p.lastAnswer.Correct = &correct
		}
	}
}

func (s *Session) enterScore() {
	s.enter(PhaseScore, nil)
}

func (s *Session) afterScore() {
	switch {
	case s.matchOver():
		s.endGame()
	case s.miniGameRounds[s.roundNumber]:
		s.enter(PhaseIntermission, nil)
	default:
		s.enter(PhaseNextRoundConfirm, nil)
	}
}

func (s *Session) enterMiniGame() {
	t := s.rotation.Next()
	s.enter(PhaseMiniGame, func() {
		g, err := minigame.New(t, s.rng, s.roster.ids())
		if err != nil {
			s.logger.Error().Err(err).Str("type", string(t)).Msg("mini-game setup failed")
			return
		}
		s.miniGame = g
		s.miniGameFinished = false
		s.miniGameLeaders = nil
	})
}

// finishMiniGame adds the mini-game scores to the main score.
func (s *Session) finishMiniGame() {
	if g := s.miniGame; g != nil && !s.miniGameFinished {
		for _, r := range g.Results() {
			if p, ok := s.registry.get(r.PlayerId); ok {
				p.score += r.Score
			}
		}
		s.miniGameFinished = true
		s.miniGameLeaders = g.Leaders(3)
	}
	s.enter(PhaseNextRoundConfirm, nil)
}

func (s *Session) endGame() {
	s.enter(PhaseGameEnd, func() {
		for _, p := range s.registry.all() {
			p.ready = false
		}
		s.archiveMatch()
	})
}

func (s *Session) standings() []scoring.Standing {
	entries := make([]scoring.Standing, 0, len(s.registry.all()))
	for _, p := range s.registry.all() {
		entries = append(entries, scoring.Standing{PlayerId: p.id, Nickname: p.nickname, CharacterId: p.characterId, Score: p.score})
	}
	return scoring.Leaderboard(entries)
}

func (s *Session) archiveMatch() {
	if s.archive == nil || s.matchId == "" {
		return
	}
	result := domain.MatchResult{
		Id:         s.matchId,
		Rounds:     s.roundNumber,
		StartedAt:  s.matchStartedAt,
		FinishedAt: s.clock(),
	}
	for i, st := range s.standings() {
		result.Standings = append(result.Standings, domain.MatchStanding{
			PlayerId:    st.PlayerId,
			Nickname:    st.Nickname,
			CharacterId: st.CharacterId,
			Score:       st.Score,
			Rank:        i + 1,
		})
	}

	archive, timeout, logger := s.archive, s.settings.ArchiveTimeout, s.logger
	s.background.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := archive.SaveMatch(ctx, result); err != nil {
			logger.Error().Err(err).Str("match", result.Id).Msg("archiving match failed")
			return
		}
		logger.Info().Str("match", result.Id).Msg("match archived")
	})
}

// resetMatch clears every match value and returns to the lobby. Connected
// players stay, ghosts go.
func (s *Session) resetMatch() {
	s.registry.removeOffline()
	cat := s.catalog()
	for _, p := range s.registry.all() {
		p.resetMatch(abilityUses(cat, p.characterId))
	}
	s.matchId = ""
	s.roundNumber = 0
	s.usedQuestionIds = map[string]bool{}
	s.recentCategoryIds = nil
	s.resetRoundState()
	s.enter(PhaseLobby, nil)
}

// allRosterDone reports whether every roster member that is still active
// satisfies done. It is false when no such member exists.
func (s *Session) allRosterDone(done func(p *player) bool) bool {
	n := 0
	for _, id := range s.roster.ids() {
		p, ok := s.registry.get(id)
		if !ok || !p.isActive() {
			continue
		}
		if !done(p) {
			return false
		}
		n++
	}
	return n > 0
}

func (s *Session) hasVoted(p *player) bool {
	_, ok := s.categoryVotes[p.id]
	return ok
}

func (s *Session) hasAnswered(p *player) bool {
	_, ok := s.answers[p.id]
	return ok
}

func (s *Session) miniGameDone(p *player) bool {
	if s.miniGame == nil {
		return false
	}
	pr, ok := s.miniGame.ProgressOf(p.id)
	return ok && pr.Done()
}

func isPrepared(p *player) bool {
	return p.preparedForQuestion
}

// checkEarlyAdvance ends a gated phase once nobody is left to wait for.
func (s *Session) checkEarlyAdvance() {
	switch s.phase {
	case PhaseCategorySelect:
		if s.allRosterDone(s.hasVoted) {
			s.resolveCategory("")
		}
	case PhaseAbility:
		if s.allRosterDone(isPrepared) {
			s.enterQuestion()
		}
	case PhaseQuestion:
		if s.allRosterDone(s.hasAnswered) {
			s.enterAnswerReveal()
		}
	case PhaseMiniGame:
		if s.allRosterDone(s.miniGameDone) {
			s.finishMiniGame()
		}
	}
}
