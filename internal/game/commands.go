package game

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/akapranchikova/quizzz/internal/catalog"
	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/akapranchikova/quizzz/internal/minigame"
)

type command struct {
	// phases lists where the command is accepted. Empty means anywhere.
	phases []Phase
	// needsPlayer resolves the active player bound to the sending connection.
	needsPlayer bool
	// eligible additionally requires roster membership.
	eligible bool
	admin    bool
	handle   func(s *Session, e ClientPacketEnvelope, p *player) error
}

// commandTable is filled in init for the same reason as phaseTable.
var commandTable map[string]command

func init() {
	endedOrIdle := []Phase{PhaseLobby, PhaseReady, PhaseGameStartConfirm, PhaseGameEnd}
	commandTable = map[string]command{
		EventJoin:   {handle: (*Session).handleJoin},
		EventResume: {handle: (*Session).handleResume},
		EventReady: {
			phases:      endedOrIdle,
			needsPlayer: true,
			handle:      (*Session).handleReady,
		},
		EventStartGame: {
			phases:      []Phase{PhaseGameStartConfirm},
			needsPlayer: true,
			handle:      func(s *Session, _ ClientPacketEnvelope, _ *player) error { s.beginMatch(); return nil },
		},
		EventVoteCategory: {
			phases:      []Phase{PhaseCategorySelect},
			needsPlayer: true,
			eligible:    true,
			handle:      (*Session).handleVote,
		},
		EventConfirmPre: {
			phases:      []Phase{PhaseAbility},
			needsPlayer: true,
			eligible:    true,
			handle:      (*Session).handleConfirmPre,
		},
		EventUseAbility: {
			phases:      []Phase{PhaseAbility},
			needsPlayer: true,
			eligible:    true,
			handle: func(s *Session, e ClientPacketEnvelope, p *player) error {
				var req abilityRequest
				if err := e.decode(&req); err != nil {
					return err
				}
				s.useAbility(p, req)
				return nil
			},
		},
		EventAnswer: {
			phases:      []Phase{PhaseQuestion},
			needsPlayer: true,
			eligible:    true,
			handle:      (*Session).handleAnswer,
		},
		EventClearEventLock: {
			needsPlayer: true,
			handle:      func(s *Session, _ ClientPacketEnvelope, p *player) error { s.clearEventLock(p); return nil },
		},
		EventContinueNext: {
			phases:      []Phase{PhaseNextRoundConfirm},
			needsPlayer: true,
			handle:      func(s *Session, _ ClientPacketEnvelope, _ *player) error { s.startRound(); return nil },
		},
		EventMiniGameAction: {
			phases:      []Phase{PhaseMiniGame},
			needsPlayer: true,
			eligible:    true,
			handle:      (*Session).handleMiniGameAction,
		},
		EventAdminStartGame: {
			phases: endedOrIdle,
			admin:  true,
			handle: func(s *Session, _ ClientPacketEnvelope, _ *player) error {
				if len(s.registry.active()) == 0 {
					return ErrNoActivePlayers
				}
				s.beginMatch()
				return nil
			},
		},
		EventAdminReset: {
			admin:  true,
			handle: func(s *Session, _ ClientPacketEnvelope, _ *player) error { s.resetMatch(); return nil },
		},
		EventAdminReloadData: {
			admin:  true,
			handle: func(s *Session, _ ClientPacketEnvelope, _ *player) error { s.requestReload(); return nil },
		},
		EventAdminNext: {
			admin:  true,
			handle: func(s *Session, _ ClientPacketEnvelope, _ *player) error { s.skipPhase(); return nil },
		},
		EventAdminPickCategory: {
			phases: []Phase{PhaseCategorySelect},
			admin:  true,
			handle: func(s *Session, e ClientPacketEnvelope, _ *player) error {
				var req categoryRequest
				if err := e.decode(&req); err != nil {
					return err
				}
				if _, ok := s.catalog().Category(req.CategoryId); !ok {
					return ErrBadRequestFormat
				}
				s.resolveCategory(req.CategoryId)
				return nil
			},
		},
	}
}

// handleEnvelope routes one client packet. Everything that does not apply to
// the current phase or sender is dropped silently.
func (s *Session) handleEnvelope(e ClientPacketEnvelope) {
	if e.from == nil {
		return
	}
	if _, ok := s.clients[e.from.Id()]; !ok {
		return
	}
	cmd, ok := commandTable[e.packet.Event]
	if !ok {
		s.logger.Debug().Str("event", e.packet.Event).Str("conn", e.from.Id()).Msg("unknown event")
		return
	}
	if cmd.admin && e.from.Role() != RoleAdmin {
		return
	}
	if err := s.dispatch(cmd, e); err != nil && !errors.Is(err, ErrBadRequestFormat) {
		s.logger.Debug().Err(err).Str("event", e.packet.Event).Msg("command rejected")
	}
}

func (s *Session) handleAdmin(e ClientPacketEnvelope) error {
	cmd, ok := commandTable[e.packet.Event]
	if !ok || !cmd.admin {
		return ErrUnknownCommand
	}
	s.logger.Info().Str("event", e.packet.Event).Msg("admin command")
	return s.dispatch(cmd, e)
}

func (s *Session) dispatch(cmd command, e ClientPacketEnvelope) error {
	if len(cmd.phases) > 0 && !slices.Contains(cmd.phases, s.phase) {
		return nil
	}
	var p *player
	if cmd.needsPlayer {
		bound, ok := s.registry.byConnection(e.from.Id())
		if !ok || !bound.isActive() {
			return nil
		}
		if cmd.eligible && !s.roster.has(bound.id) {
			return nil
		}
		bound.lastSeenAt = s.clock()
		p = bound
	}
	return cmd.handle(s, e, p)
}

func (s *Session) handleJoin(e ClientPacketEnvelope, _ *player) error {
	var req joinRequest
	if err := e.decode(&req); err != nil {
		s.reply(e, ackResponse{Error: err.Error()})
		return err
	}
	cat := s.catalog()
	if _, ok := cat.Character(req.CharacterId); !ok {
		if characters := cat.Characters(); len(characters) > 0 {
			req.CharacterId = characters[0].Id
		}
	}

	p, token, err := s.registry.join(e.from.Id(), req.Nickname, req.CharacterId, abilityUses(cat, req.CharacterId), s.clock())
	if err != nil {
		s.reply(e, ackResponse{Error: err.Error()})
		return err
	}
	s.logger.Info().Str("player", p.id).Str("nickname", p.nickname).Str("character", p.characterId).Msg("player joined")

	s.reply(e, ackResponse{Ok: true, PlayerId: p.id, ResumeToken: token})
	s.notifyMissedRound(p)
	s.dirty = true
	s.evaluateReadiness()
	return nil
}

func (s *Session) handleResume(e ClientPacketEnvelope, _ *player) error {
	var req resumeRequest
	if err := e.decode(&req); err != nil {
		s.reply(e, ackResponse{Error: err.Error()})
		return err
	}
	p, replaced, err := s.registry.resume(e.from.Id(), req.PlayerId, req.ResumeToken, s.clock())
	if err != nil {
		s.reply(e, ackResponse{Error: err.Error()})
		s.sendTo(e.from, EventResumeFailed, ackResponse{Error: err.Error()})
		s.logger.Info().Str("player", req.PlayerId).Err(err).Msg("resume failed")
		return err
	}
	if old, ok := s.clients[replaced]; ok {
		delete(s.clients, replaced)
		s.dropTasks = append(s.dropTasks, dropTask{to: old, reason: "session-replaced"})
	}
	s.logger.Info().Str("player", p.id).Bool("replaced", replaced != "").Msg("player resumed")

	s.reply(e, ackResponse{Ok: true, PlayerId: p.id})
	s.sendTo(e.from, EventResumeOk, map[string]string{"playerId": p.id})
	s.notifyMissedRound(p)
	s.dirty = true
	s.evaluateReadiness()
	return nil
}

type missedRoundNotice struct {
	Phase       Phase `json:"phase"`
	RoundNumber int   `json:"roundNumber"`
}

func (s *Session) notifyMissedRound(p *player) {
	if !phaseTable[s.phase].gated || s.roster.has(p.id) {
		return
	}
	s.notify(p, EventMissedRound, missedRoundNotice{Phase: s.phase, RoundNumber: s.roundNumber})
}

// handleReady accepts a bare bool or {"ready": bool}. No payload means ready.
func (s *Session) handleReady(e ClientPacketEnvelope, p *player) error {
	ready := true
	if len(e.packet.Data) > 0 {
		if err := json.Unmarshal(e.packet.Data, &ready); err != nil {
			var wrapped struct {
				Ready bool `json:"ready"`
			}
			if err := json.Unmarshal(e.packet.Data, &wrapped); err != nil {
				return ErrBadRequestFormat
			}
			ready = wrapped.Ready
		}
	}
	if p.ready == ready {
		return nil
	}
	p.ready = ready
	s.dirty = true
	if !ready && s.phase == PhaseGameStartConfirm {
		s.enter(PhaseReady, nil)
	}
	s.evaluateReadiness()
	return nil
}

func (s *Session) handleVote(e ClientPacketEnvelope, p *player) error {
	var req categoryRequest
	if err := e.decode(&req); err != nil {
		return err
	}
	valid := false
	if len(s.categoryOptions) > 0 {
		valid = slices.ContainsFunc(s.categoryOptions, func(c domain.Category) bool { return c.Id == req.CategoryId })
	} else {
		_, valid = s.catalog().Category(req.CategoryId)
	}
	if !valid {
		return nil
	}
	s.categoryVotes[p.id] = req.CategoryId
	s.dirty = true
	s.checkEarlyAdvance()
	return nil
}

func (s *Session) handleConfirmPre(_ ClientPacketEnvelope, p *player) error {
	if p.preparedForQuestion {
		return nil
	}
	p.preparedForQuestion = true
	s.preQuestionReady[p.id] = true
	s.dirty = true
	s.checkEarlyAdvance()
	return nil
}

func (s *Session) handleAnswer(e ClientPacketEnvelope, p *player) error {
	var req answerRequest
	if err := e.decode(&req); err != nil {
		return err
	}
	q := s.currentQuestion
	if q == nil || !q.HasOption(req.OptionId) || s.hasAnswered(p) {
		return nil
	}
	now := s.clock()
	if p.eventLock != nil {
		s.notify(p, EventBlocked, blockedNotice{Reason: p.eventLock.Type})
		return nil
	}
	if now.Before(p.frozenUntil) {
		s.notify(p, EventBlocked, blockedNotice{Reason: "frozen"})
		return nil
	}

	ms := max(now.Sub(s.questionStartedAt).Milliseconds(), 0)
	s.answers[p.id] = submittedAnswer{optionId: req.OptionId, answerTimeMs: ms}
	s.answerStats[req.OptionId]++
	p.lastAnswer = &LastAnswer{OptionId: req.OptionId, AnswerTimeMs: ms}
	s.dirty = true
	s.checkEarlyAdvance()
	return nil
}

func (s *Session) handleMiniGameAction(e ClientPacketEnvelope, p *player) error {
	if s.miniGame == nil || s.miniGameFinished {
		return nil
	}
	var action minigame.Action
	if err := e.decode(&action); err != nil {
		return err
	}
	if !s.miniGame.Apply(p.id, action) {
		return nil
	}
	s.dirty = true
	s.checkEarlyAdvance()
	return nil
}

// skipPhase runs the current phase's timeout right away.
func (s *Session) skipPhase() {
	if s.phase == PhaseGameStartConfirm {
		s.beginMatch()
		return
	}
	def := phaseTable[s.phase]
	if def.onTimeout == nil {
		return
	}
	s.armed = nil
	def.onTimeout(s)
}

func (s *Session) requestReload() {
	catalogs := s.catalogs
	s.background.Go(func() {
		s.CatalogReloaded(catalogs.Reload())
	})
}

type dataReloadedNotice struct {
	Categories     int `json:"categories"`
	Characters     int `json:"characters"`
	TotalQuestions int `json:"totalQuestions"`
}

// handleCatalogReloaded seeds uses for abilities players did not have yet and
// tells every connection.
func (s *Session) handleCatalogReloaded(c *catalog.Catalog) {
	if c == nil {
		return
	}
	s.cat = c
	for _, p := range s.registry.all() {
		for id, uses := range abilityUses(c, p.characterId) {
			if _, ok := p.abilityUses[id]; !ok {
				p.abilityUses[id] = uses
			}
		}
	}
	s.broadcast(EventDataReloaded, dataReloadedNotice{
		Categories:     len(c.Categories()),
		Characters:     len(c.Characters()),
		TotalQuestions: c.TotalQuestions(),
	})
	s.dirty = true
	s.logger.Info().Int("questions", c.TotalQuestions()).Msg("catalog reloaded")
}
