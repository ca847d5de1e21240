package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid-config")

type PhaseDurations struct {
	Ready            time.Duration `env:"READY_DURATION" envDefault:"20s"`
	RoundIntro       time.Duration `env:"ROUND_INTRO_DURATION" envDefault:"3s"`
	CategorySelect   time.Duration `env:"CATEGORY_PICK_DURATION" envDefault:"15s"`
	CategoryReveal   time.Duration `env:"CATEGORY_REVEAL_DURATION" envDefault:"4s"`
	RandomEvent      time.Duration `env:"RANDOM_EVENT_DURATION" envDefault:"4s"`
	Ability          time.Duration `env:"ABILITY_DURATION" envDefault:"7s"`
	AnswerReveal     time.Duration `env:"REVEAL_DURATION" envDefault:"5s"`
	Score            time.Duration `env:"SCORE_DURATION" envDefault:"5s"`
	Intermission     time.Duration `env:"INTERMISSION_DURATION" envDefault:"4s"`
	MiniGame         time.Duration `env:"MINI_GAME_DURATION" envDefault:"30s"`
	NextRoundConfirm time.Duration `env:"ROUND_INTERVAL" envDefault:"10s"`
}

type Config struct {
	Port           int      `env:"PORT" envDefault:"5174"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	PublicURL      string   `env:"PUBLIC_URL"`
	DataDir        string   `env:"DATA_DIR" envDefault:"data"`
	WatchData      bool     `env:"WATCH_DATA" envDefault:"true"`

	MinPlayersToStart int           `env:"MIN_PLAYERS_TO_START" envDefault:"2"`
	MaxPlayers        int           `env:"MAX_PLAYERS" envDefault:"12"`
	MaxRounds         int           `env:"MAX_ROUNDS" envDefault:"8"`
	RandomEventChance float64       `env:"RANDOM_EVENT_CHANCE" envDefault:"0.35"`
	WrongPenalty      int           `env:"WRONG_PENALTY" envDefault:"0"`
	DisconnectGrace   time.Duration `env:"DISCONNECT_GRACE" envDefault:"30s"`
	TickInterval      time.Duration `env:"TICK_INTERVAL" envDefault:"100ms"`
	Phases            PhaseDurations

	ResumeTokenKey string        `env:"RESUME_TOKEN_KEY"`
	ResumeTokenTTL time.Duration `env:"RESUME_TOKEN_TTL" envDefault:"12h"`

	RateLimit float64 `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst int     `env:"RATE_BURST" envDefault:"20"`

	PostgresURL string `env:"POSTGRES_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load(dotenvPaths ...string) (Config, error) {
	for _, p := range dotenvPaths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	case c.MinPlayersToStart < 1:
		return fmt.Errorf("%w: MIN_PLAYERS_TO_START must be at least 1", ErrInvalidConfig)
	case c.MaxPlayers < c.MinPlayersToStart:
		return fmt.Errorf("%w: MAX_PLAYERS below MIN_PLAYERS_TO_START", ErrInvalidConfig)
	case c.MaxRounds < 1:
		return fmt.Errorf("%w: MAX_ROUNDS must be at least 1", ErrInvalidConfig)
	case math.IsNaN(c.RandomEventChance) || c.RandomEventChance < 0 || c.RandomEventChance > 1:
		return fmt.Errorf("%w: RANDOM_EVENT_CHANCE outside [0,1]", ErrInvalidConfig)
	case c.WrongPenalty < 0:
		return fmt.Errorf("%w: WRONG_PENALTY must not be negative", ErrInvalidConfig)
	case c.TickInterval <= 0:
		return fmt.Errorf("%w: TICK_INTERVAL must be positive", ErrInvalidConfig)
	}
	return c.Phases.validate()
}

func (d PhaseDurations) validate() error {
	for name, v := range map[string]time.Duration{
		"READY_DURATION":           d.Ready,
		"ROUND_INTRO_DURATION":     d.RoundIntro,
		"CATEGORY_PICK_DURATION":   d.CategorySelect,
		"CATEGORY_REVEAL_DURATION": d.CategoryReveal,
		"RANDOM_EVENT_DURATION":    d.RandomEvent,
		"ABILITY_DURATION":         d.Ability,
		"REVEAL_DURATION":          d.AnswerReveal,
		"SCORE_DURATION":           d.Score,
		"INTERMISSION_DURATION":    d.Intermission,
		"MINI_GAME_DURATION":       d.MiniGame,
		"ROUND_INTERVAL":           d.NextRoundConfirm,
	} {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}
	return nil
}
