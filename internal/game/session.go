package game

import (
	"context"
	"sync"
	"time"

	"github.com/akapranchikova/quizzz/internal/catalog"
	"github.com/akapranchikova/quizzz/internal/config"
	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/akapranchikova/quizzz/internal/minigame"
	"github.com/akapranchikova/quizzz/internal/scoring"
	"github.com/rs/zerolog"
)

type Durations struct {
	Ready            time.Duration
	RoundIntro       time.Duration
	CategorySelect   time.Duration
	CategoryReveal   time.Duration
	RandomEvent      time.Duration
	Ability          time.Duration
	AnswerReveal     time.Duration
	Score            time.Duration
	Intermission     time.Duration
	MiniGame         time.Duration
	NextRoundConfirm time.Duration
}

type Settings struct {
	MinPlayers        int
	MaxPlayers        int
	MaxRounds         int
	RandomEventChance float64
	DisconnectGrace   time.Duration
	TickInterval      time.Duration
	PingInterval      time.Duration
	FreezeDuration    time.Duration
	CategoryOptions   int
	RecentCategories  int
	ArchiveTimeout    time.Duration
	Durations         Durations
	Rules             scoring.Rules
}

func DefaultSettings() Settings {
	return Settings{
		MinPlayers:        2,
		MaxPlayers:        12,
		MaxRounds:         8,
		RandomEventChance: 0.35,
		DisconnectGrace:   30 * time.Second,
		TickInterval:      100 * time.Millisecond,
		PingInterval:      30 * time.Second,
		FreezeDuration:    3 * time.Second,
		CategoryOptions:   4,
		RecentCategories:  2,
		ArchiveTimeout:    5 * time.Second,
		Durations: Durations{
			Ready:            20 * time.Second,
			RoundIntro:       3 * time.Second,
			CategorySelect:   15 * time.Second,
			CategoryReveal:   4 * time.Second,
			RandomEvent:      4 * time.Second,
			Ability:          7 * time.Second,
			AnswerReveal:     5 * time.Second,
			Score:            5 * time.Second,
			Intermission:     4 * time.Second,
			MiniGame:         30 * time.Second,
			NextRoundConfirm: 10 * time.Second,
		},
		Rules: scoring.DefaultRules(),
	}
}

func SettingsFromConfig(cfg config.Config) Settings {
	s := DefaultSettings()
	s.MinPlayers = cfg.MinPlayersToStart
	s.MaxPlayers = cfg.MaxPlayers
	s.MaxRounds = cfg.MaxRounds
	s.RandomEventChance = cfg.RandomEventChance
	s.DisconnectGrace = cfg.DisconnectGrace
	s.TickInterval = cfg.TickInterval
	s.Rules.WrongPenalty = cfg.WrongPenalty
	s.Durations = Durations(cfg.Phases)
	return s
}

// Deps are the collaborators a session is built from. Archive may be nil.
type Deps struct {
	Catalogs CatalogSource
	Tokens   TokenManager
	Hasher   SecretHasher
	Archive  MatchArchive
	Random   Random
	Clock    func() time.Time
	Tickers  PeriodicTickerChannelCreator
	Logger   zerolog.Logger
}

type phaseTimer struct {
	phase    Phase
	deadline time.Time
}

type submittedAnswer struct {
	optionId     string
	answerTimeMs int64
}

type adminRequest struct {
	envelope ClientPacketEnvelope
	errChan  chan error
}

// Session is the single authoritative game room. All state below is owned
// by the goroutine running Run.
type Session struct {
	settings Settings
	catalogs CatalogSource
	cat      *catalog.Catalog
	archive  MatchArchive
	rng      Random
	clock    func() time.Time
	tickers  PeriodicTickerChannelCreator
	logger   zerolog.Logger

	// Phase machine
	phase          Phase
	phaseStartedAt time.Time
	phaseEndsAt    time.Time
	armed          *phaseTimer
	roster         *roster

	// Match
	matchId           string
	matchStartedAt    time.Time
	roundNumber       int
	usedQuestionIds   map[string]bool
	recentCategoryIds []string
	miniGameRounds    map[int]bool
	rotation          *minigame.Rotation

	// Round
	categoryOptions       []domain.Category
	categoryVotes         map[string]string
	activeCategoryId      string
	nextQuestion          *domain.Question
	currentQuestion       *domain.Question
	questionStartedAt     time.Time
	answers               map[string]submittedAnswer
	answerStats           map[string]int
	preQuestionReady      map[string]bool
	activeEvent           *ActiveEvent
	allCorrectBonusActive bool
	recentImpact          *Impact
	miniGame              *minigame.Game
	miniGameFinished      bool
	miniGameLeaders       []minigame.Result

	// Players and connections
	registry *registry
	clients  map[string]Client

	// Outgoing work collected while handling one event
	dirty         bool
	dataSendTasks []dataSendTask
	dropTasks     []dropTask

	// Communication
	inbox            chan ClientPacketEnvelope
	attachRequests   chan Client
	removalRequests  chan Client
	adminRequests    chan adminRequest
	reloads          chan *catalog.Catalog
	snapshotRequests chan chan []byte
	stopped          chan struct{}
	background       sync.WaitGroup
}

func NewSession(settings Settings, deps Deps) *Session {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	s := &Session{
		settings:         settings,
		catalogs:         deps.Catalogs,
		cat:              deps.Catalogs.Current(),
		archive:          deps.Archive,
		rng:              deps.Random,
		clock:            clock,
		tickers:          deps.Tickers,
		logger:           deps.Logger.With().Str("component", "session").Logger(),
		phase:            PhaseLobby,
		registry:         newRegistry(deps.Tokens, deps.Hasher, settings.MaxPlayers),
		clients:          map[string]Client{},
		usedQuestionIds:  map[string]bool{},
		miniGameRounds:   minigame.Schedule(settings.MaxRounds),
		categoryVotes:    map[string]string{},
		answers:          map[string]submittedAnswer{},
		answerStats:      map[string]int{},
		preQuestionReady: map[string]bool{},
		inbox:            make(chan ClientPacketEnvelope, 1024),
		attachRequests:   make(chan Client, 64),
		removalRequests:  make(chan Client, 64),
		adminRequests:    make(chan adminRequest, 16),
		reloads:          make(chan *catalog.Catalog, 4),
		snapshotRequests: make(chan chan []byte, 16),
		stopped:          make(chan struct{}),
	}
	s.phaseStartedAt = clock()
	return s
}

// catalog is the actor's pinned copy. Only handleCatalogReloaded replaces it.
func (s *Session) catalog() *catalog.Catalog {
	return s.cat
}

// Send forwards a client packet to the actor.
func (s *Session) Send(ctx context.Context, e ClientPacketEnvelope) {
	select {
	case s.inbox <- e:
	case <-ctx.Done():
	case <-s.stopped:
	}
}

func (s *Session) RemoveMe(ctx context.Context, c Client) {
	select {
	case s.removalRequests <- c:
	case <-ctx.Done():
	case <-s.stopped:
	}
}

// Attach registers a freshly upgraded connection. It gets a snapshot right away.
func (s *Session) Attach(ctx context.Context, c Client) error {
	select {
	case s.attachRequests <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrSessionStopped
	}
}

// Admin runs an admin command outside of any websocket connection.
func (s *Session) Admin(ctx context.Context, event string, data []byte) error {
	if _, ok := commandTable[event]; !ok || !commandTable[event].admin {
		return ErrUnknownCommand
	}
	req := adminRequest{
		envelope: ClientPacketEnvelope{packet: ClientPacket{Event: event, Data: data}, trusted: true},
		errChan:  make(chan error, 1),
	}
	select {
	case s.adminRequests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrSessionStopped
	}
	select {
	case err := <-req.errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrSessionStopped
	}
}

// CatalogReloaded hands a freshly loaded catalog to the actor.
func (s *Session) CatalogReloaded(c *catalog.Catalog) {
	select {
	case s.reloads <- c:
	case <-s.stopped:
	}
}

// Snapshot returns the state as an anonymous screen would see it.
func (s *Session) Snapshot(ctx context.Context) ([]byte, error) {
	resp := make(chan []byte, 1)
	select {
	case s.snapshotRequests <- resp:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopped:
		return nil, ErrSessionStopped
	}
	select {
	case data := <-resp:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopped:
		return nil, ErrSessionStopped
	}
}

// Run is the actor loop. It returns after ctx is cancelled and background
// work such as match archiving has finished.
func (s *Session) Run(ctx context.Context) {
	ticks := s.tickers.Create(s.settings.TickInterval)
	pings := s.tickers.Create(s.settings.PingInterval)
	s.logger.Info().Int("minPlayers", s.settings.MinPlayers).Int("maxRounds", s.settings.MaxRounds).Msg("session started")

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case now := <-ticks:
			s.handleTick(now)
		case <-pings:
			s.pingClients()
		case c := <-s.attachRequests:
			s.handleAttach(c)
		case c := <-s.removalRequests:
			s.handleRemoveClient(c)
		case e := <-s.inbox:
			s.handleEnvelope(e)
		case req := <-s.adminRequests:
			req.errChan <- s.handleAdmin(req.envelope)
		case c := <-s.reloads:
			s.handleCatalogReloaded(c)
		case resp := <-s.snapshotRequests:
			resp <- s.encodeState(nil)
		}
		s.flush()
	}
}

func (s *Session) shutdown() {
	close(s.stopped)
	for _, c := range s.clients {
		c.CancelAndRelease("server-shutdown")
	}
	s.clients = map[string]Client{}
	s.background.Wait()
	s.logger.Info().Msg("session stopped")
}

func (s *Session) pingClients() {
	for _, c := range s.clients {
		c.Ping()
	}
}

func (s *Session) handleAttach(c Client) {
	s.clients[c.Id()] = c
	s.queueState(c)
	s.logger.Debug().Str("conn", c.Id()).Str("role", string(c.Role())).Msg("client attached")
}

func (s *Session) handleRemoveClient(c Client) {
	if _, ok := s.clients[c.Id()]; !ok {
		return
	}
	delete(s.clients, c.Id())
	p, ok := s.registry.disconnect(c.Id(), s.clock(), s.settings.DisconnectGrace)
	if !ok {
		return
	}
	s.logger.Info().Str("player", p.id).Str("nickname", p.nickname).Msg("player disconnected")
	s.dirty = true
	s.evaluateReadiness()
	s.checkEarlyAdvance()
}

// handleTick drives grace expiry and the armed phase timer.
func (s *Session) handleTick(now time.Time) {
	s.expireGrace(now)

	if s.armed == nil || now.Before(s.armed.deadline) {
		return
	}
	armed := *s.armed
	s.armed = nil
	if armed.phase != s.phase {
		return
	}
	if def := phaseTable[armed.phase]; def.onTimeout != nil {
		def.onTimeout(s)
	}
}

func (s *Session) expireGrace(now time.Time) {
	expired := s.registry.expire(now)
	if len(expired) == 0 {
		return
	}
	for _, p := range expired {
		s.logger.Info().Str("player", p.id).Str("nickname", p.nickname).Msg("player evicted")
		if s.phase == PhaseLobby || s.phase == PhaseGameEnd {
			s.registry.remove(p.id)
		}
	}
	s.dirty = true
	s.evaluateReadiness()
	s.checkEarlyAdvance()
}
