package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/akapranchikova/quizzz/internal/catalog"
	"github.com/akapranchikova/quizzz/internal/config"
	"github.com/akapranchikova/quizzz/internal/crypto"
	"github.com/akapranchikova/quizzz/internal/game"
	"github.com/akapranchikova/quizzz/internal/logger"
	"github.com/akapranchikova/quizzz/internal/storage"
	"github.com/akapranchikova/quizzz/internal/storage/migrations"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	store := catalog.NewStore(cfg.DataDir, log)
	store.Reload()

	key := cfg.ResumeTokenKey
	if key == "" {
		var err error
		if key, err = crypto.RandomKey(); err != nil {
			return err
		}
		log.Warn().Msg("RESUME_TOKEN_KEY not set, resume tokens will not survive a restart")
	}
	tokens := crypto.NewJWTManager(key, cfg.ResumeTokenTTL)
	// Resume tokens are random and long, so a light argon2id setting keeps
	// the session actor responsive.
	hasher := crypto.NewArgon2idHasher(1, 8*1024, 32, 16, 1)

	var archive game.MatchArchive
	if cfg.PostgresURL != "" {
		if err := migrations.Migrate(cfg.PostgresURL); err != nil {
			return err
		}
		repo, err := storage.NewPostgresRepo(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer repo.Close()
		archive = repo
		log.Info().Msg("match archive enabled")
	} else {
		log.Info().Msg("POSTGRES_URL not set, match archive disabled")
	}

	tickers := game.NewTickerGen()
	defer tickers.Stop()
	now := uint64(time.Now().UnixNano())
	session := game.NewSession(game.SettingsFromConfig(cfg), game.Deps{
		Catalogs: store,
		Tokens:   tokens,
		Hasher:   hasher,
		Archive:  archive,
		Random:   rand.New(rand.NewPCG(now, now>>1|1)),
		Clock:    time.Now,
		Tickers:  tickers,
		Logger:   log,
	})

	sessionCtx, cancelSession := context.WithCancel(context.Background())
	defer cancelSession()
	var wg sync.WaitGroup
	wg.Go(func() { session.Run(sessionCtx) })
	if cfg.WatchData {
		watcher := catalog.NewWatcher(store, session.CatalogReloaded, log)
		wg.Go(func() {
			if err := watcher.Run(sessionCtx); err != nil {
				log.Error().Err(err).Msg("catalog watcher stopped")
			}
		})
	}

	r := CreateServer(cfg.AllowedOrigins, log)
	handler := game.NewGameHandler(session, archive, game.HandlerOptions{
		PublicURL: cfg.PublicURL,
		RateLimit: rate.Limit(cfg.RateLimit),
		RateBurst: cfg.RateBurst,
	}, log)
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()
	log.Info().Int("port", cfg.Port).Msg("listening")

	var err error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	cancelSession()
	wg.Wait()
	return err
}
