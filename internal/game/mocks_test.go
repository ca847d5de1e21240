package game

import (
	"context"
	"strings"
	"time"

	"github.com/akapranchikova/quizzz/internal/catalog"
	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/stretchr/testify/mock"
)

// --- Client ---

type MockClient struct {
	mock.Mock
	id   string
	role Role
}

func NewMockClient(id string, role Role) *MockClient {
	return &MockClient{id: id, role: role}
}

func (m *MockClient) Id() string { return m.id }

func (m *MockClient) Role() Role { return m.role }

func (m *MockClient) Send(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockClient) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockClient) SetSession(s SessionGateway) {
	m.Called(s)
}

func (m *MockClient) CancelAndRelease(reason string) {
	m.Called(reason)
}

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close(reason string) {
	m.Called(reason)
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- SessionGateway ---

type MockSessionGateway struct {
	mock.Mock
}

func (m *MockSessionGateway) Send(ctx context.Context, e ClientPacketEnvelope) {
	m.Called(ctx, e)
}

func (m *MockSessionGateway) RemoveMe(ctx context.Context, c Client) {
	m.Called(ctx, c)
}

// --- Gateway ---

type MockGateway struct {
	MockSessionGateway
}

func (m *MockGateway) Attach(ctx context.Context, c Client) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockGateway) Admin(ctx context.Context, event string, data []byte) error {
	args := m.Called(ctx, event, data)
	return args.Error(0)
}

func (m *MockGateway) Snapshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	return args.Get(0).([]byte), args.Error(1)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- MatchArchive ---

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) SaveMatch(ctx context.Context, r domain.MatchResult) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockArchive) RecentMatches(ctx context.Context, limit int) ([]domain.MatchResult, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.MatchResult), args.Error(1)
}

// --- Fakes ---

// fakeRandom picks index pick modulo n, never shuffles and always rolls
// float.
type fakeRandom struct {
	pick  int
	float float64
}

func (r *fakeRandom) IntN(n int) int                     { return r.pick % n }
func (r *fakeRandom) Float64() float64                   { return r.float }
func (r *fakeRandom) Shuffle(n int, swap func(i, j int)) {}

// fakeTokens issues "token:<playerId>".
type fakeTokens struct{}

func (fakeTokens) Generate(playerId string, _ time.Time) (string, error) {
	return "token:" + playerId, nil
}

func (fakeTokens) Verify(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "token:")
	if !ok {
		return "", domain.ErrCorruptedToken
	}
	return id, nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(secret string) (string, error) {
	return "hash:" + secret, nil
}

func (fakeHasher) Compare(hash, secret string) (bool, error) {
	return hash == "hash:"+secret, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

// driftingCatalogs serves first for the initial Current call and catalog.Empty
// afterwards, like a store swapped by a reload goroutine.
type driftingCatalogs struct {
	first *catalog.Catalog
	calls int
}

func (d *driftingCatalogs) Current() *catalog.Catalog {
	d.calls++
	if d.calls == 1 {
		return d.first
	}
	return catalog.Empty()
}

func (d *driftingCatalogs) Reload() *catalog.Catalog { return d.Current() }
