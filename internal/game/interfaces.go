package game

import (
	"context"
	"time"

	"github.com/akapranchikova/quizzz/internal/catalog"
	"github.com/akapranchikova/quizzz/internal/domain"
)

type Role string

const (
	RoleScreen     Role = "screen"
	RoleController Role = "controller"
	RoleAdmin      Role = "admin"
)

// Client is one live websocket connection.
type Client interface {
	Id() string
	Role() Role
	Send(data []byte) error
	Ping() error
	SetSession(s SessionGateway)
	CancelAndRelease(reason string)
}

// SessionGateway is what a connection needs from the session actor.
type SessionGateway interface {
	Send(ctx context.Context, e ClientPacketEnvelope)
	RemoveMe(ctx context.Context, c Client)
}

type WebsocketConnection interface {
	Close(reason string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// Random is satisfied by *rand.Rand from math/rand/v2.
type Random interface {
	IntN(n int) int
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

type TokenManager interface {
	Generate(playerId string, now time.Time) (string, error)
	Verify(token string) (string, error)
}

type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) (bool, error)
}

type CatalogSource interface {
	Current() *catalog.Catalog
	Reload() *catalog.Catalog
}

type MatchArchive interface {
	SaveMatch(ctx context.Context, m domain.MatchResult) error
	RecentMatches(ctx context.Context, limit int) ([]domain.MatchResult, error)
}
