package game

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestRouter(gateway Gateway, archive MatchArchive, options HandlerOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewGameHandler(gateway, archive, options, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func TestAdminHandler(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		path         string
		body         string
		event        string
		err          error
		expectedCode int
		expectedBody string
	}{
		{name: "start", path: "/api/admin/start", event: EventAdminStartGame, expectedCode: http.StatusOK, expectedBody: `{"ok":true}`},
		{name: "start without players", path: "/api/admin/start", event: EventAdminStartGame, err: ErrNoActivePlayers, expectedCode: http.StatusConflict, expectedBody: `{"error":"no-active-players"}`},
		{name: "reset", path: "/api/admin/reset", event: EventAdminReset, expectedCode: http.StatusOK, expectedBody: `{"ok":true}`},
		{name: "reload", path: "/api/admin/reload", event: EventAdminReloadData, expectedCode: http.StatusOK, expectedBody: `{"ok":true}`},
		{name: "next", path: "/api/admin/next", event: EventAdminNext, expectedCode: http.StatusOK, expectedBody: `{"ok":true}`},
		{name: "pick category", path: "/api/admin/pick-category", body: `{"categoryId":"science"}`, event: EventAdminPickCategory, expectedCode: http.StatusOK, expectedBody: `{"ok":true}`},
		{name: "pick unknown category", path: "/api/admin/pick-category", body: `{"categoryId":"x"}`, event: EventAdminPickCategory, err: ErrBadRequestFormat, expectedCode: http.StatusBadRequest, expectedBody: `{"error":"bad-request-format"}`},
		{name: "session stopped", path: "/api/admin/next", event: EventAdminNext, err: ErrSessionStopped, expectedCode: http.StatusServiceUnavailable, expectedBody: `{"error":"session-stopped"}`},
		{name: "unexpected failure", path: "/api/admin/reset", event: EventAdminReset, err: assert.AnError, expectedCode: http.StatusInternalServerError},
	}
	for _, tC := range testCases {
		t.Run(tC.name, func(t *testing.T) {
			t.Parallel()
			gateway := &MockGateway{}
			gateway.On("Admin", mock.Anything, tC.event, []byte(tC.body)).Return(tC.err).Once()
			router := newTestRouter(gateway, nil, HandlerOptions{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tC.path, strings.NewReader(tC.body))
			router.ServeHTTP(w, req)

			assert.Equal(t, tC.expectedCode, w.Code)
			if tC.expectedBody != "" {
				assert.JSONEq(t, tC.expectedBody, w.Body.String())
			}
			gateway.AssertExpectations(t)
		})
	}
}

func TestAdminHandler_MethodIsPost(t *testing.T) {
	t.Parallel()
	gateway := &MockGateway{}
	router := newTestRouter(gateway, nil, HandlerOptions{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/start", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	gateway.AssertNotCalled(t, "Admin", mock.Anything, mock.Anything, mock.Anything)
}

func TestStateHandler(t *testing.T) {
	t.Parallel()

	t.Run("serves the anonymous snapshot", func(t *testing.T) {
		t.Parallel()
		gateway := &MockGateway{}
		gateway.On("Snapshot", mock.Anything).Return([]byte(`{"event":"server:state","data":{"phase":"lobby"}}`), nil).Once()
		router := newTestRouter(gateway, nil, HandlerOptions{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"event":"server:state","data":{"phase":"lobby"}}`, w.Body.String())
	})

	t.Run("session stopped", func(t *testing.T) {
		t.Parallel()
		gateway := &MockGateway{}
		gateway.On("Snapshot", mock.Anything).Return([]byte(nil), ErrSessionStopped).Once()
		router := newTestRouter(gateway, nil, HandlerOptions{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"error":"session-stopped"}`, w.Body.String())
	})
}

func TestMatchesHandler(t *testing.T) {
	t.Parallel()
	finished := time.Date(2026, time.March, 14, 21, 0, 0, 0, time.UTC)
	match := domain.MatchResult{
		Id:         "m1",
		Rounds:     8,
		StartedAt:  finished.Add(-20 * time.Minute),
		FinishedAt: finished,
		Standings:  []domain.MatchStanding{{PlayerId: "p1", Nickname: "alice", CharacterId: "owl", Score: 4200, Rank: 1}},
	}

	testCases := []struct {
		name         string
		query        string
		setupMocks   func(a *MockArchive)
		expectedCode int
		expectedBody string
	}{
		{
			name:         "default limit",
			setupMocks:   func(a *MockArchive) { a.On("RecentMatches", mock.Anything, 20).Return([]domain.MatchResult{match}, nil).Once() },
			expectedCode: http.StatusOK,
			expectedBody: `[{"id":"m1","rounds":8,"startedAt":"2026-03-14T20:40:00Z","finishedAt":"2026-03-14T21:00:00Z","standings":[{"playerId":"p1","nickname":"alice","characterId":"owl","score":4200,"rank":1}]}]`,
		},
		{
			name:         "limit is capped",
			query:        "?limit=5000",
			setupMocks:   func(a *MockArchive) { a.On("RecentMatches", mock.Anything, 100).Return([]domain.MatchResult(nil), nil).Once() },
			expectedCode: http.StatusOK,
			expectedBody: `[]`,
		},
		{
			name:         "invalid limit",
			query:        "?limit=zero",
			setupMocks:   func(a *MockArchive) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"invalid-limit"}`,
		},
		{
			name:         "negative limit",
			query:        "?limit=-1",
			setupMocks:   func(a *MockArchive) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"invalid-limit"}`,
		},
		{
			name:         "database down",
			setupMocks:   func(a *MockArchive) { a.On("RecentMatches", mock.Anything, 20).Return([]domain.MatchResult(nil), domain.ErrDatabase).Once() },
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"error":"database-error"}`,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.name, func(t *testing.T) {
			t.Parallel()
			archive := &MockArchive{}
			tC.setupMocks(archive)
			router := newTestRouter(&MockGateway{}, archive, HandlerOptions{})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/matches"+tC.query, nil))

			assert.Equal(t, tC.expectedCode, w.Code)
			assert.JSONEq(t, tC.expectedBody, w.Body.String())
			archive.AssertExpectations(t)
		})
	}

	t.Run("archive disabled", func(t *testing.T) {
		t.Parallel()
		router := newTestRouter(&MockGateway{}, nil, HandlerOptions{})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/matches", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}

func TestJoinQRHandler(t *testing.T) {
	t.Parallel()
	router := newTestRouter(&MockGateway{}, nil, HandlerOptions{PublicURL: "https://quiz.example/controller"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/join-qr", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestJoinURL(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	h := NewGameHandler(&MockGateway{}, nil, HandlerOptions{}, zerolog.Nop())

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "http://192.168.1.20:8080/join-qr", nil)
	assert.Equal(t, "http://192.168.1.20:8080/controller", h.joinURL(ctx))

	ctx.Request.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://192.168.1.20:8080/controller", h.joinURL(ctx))
}

func TestWebsocketHandler_InvalidRole(t *testing.T) {
	t.Parallel()
	gateway := &MockGateway{}
	router := newTestRouter(gateway, nil, HandlerOptions{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?role=referee", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid-role"}`, w.Body.String())
	gateway.AssertNotCalled(t, "Attach", mock.Anything, mock.Anything)
}

func TestWebsocketHandler_RoundTrip(t *testing.T) {
	t.Parallel()
	attached := make(chan Client, 1)
	received := make(chan ClientPacketEnvelope, 1)
	removed := make(chan Client, 1)

	gateway := &MockGateway{}
	gateway.On("Attach", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		attached <- args.Get(1).(Client)
	}).Return(nil).Once()
	gateway.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		received <- args.Get(1).(ClientPacketEnvelope)
	}).Return().Once()
	gateway.On("RemoveMe", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		removed <- args.Get(1).(Client)
	}).Return().Once()

	server := httptest.NewServer(newTestRouter(gateway, nil, HandlerOptions{RateLimit: rate.Limit(20), RateBurst: 10}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?role=screen"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	var c Client
	select {
	case c = <-attached:
	case <-time.After(2 * time.Second):
		t.Fatal("connection never attached")
	}
	assert.Equal(t, RoleScreen, c.Role())

	snapshot := []byte(`{"event":"server:state","data":{"phase":"lobby"}}`)
	require.NoError(t, c.Send(snapshot))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.Equal(t, snapshot, msg)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"player:ready"}`)))
	select {
	case e := <-received:
		assert.Equal(t, EventReady, e.packet.Event)
		assert.Equal(t, c, e.from)
	case <-time.After(2 * time.Second):
		t.Fatal("packet never reached the session")
	}

	conn.Close()
	select {
	case gone := <-removed:
		assert.Equal(t, c, gone)
	case <-time.After(2 * time.Second):
		t.Fatal("connection never removed")
	}
	gateway.AssertExpectations(t)
}

func TestAdminStatus(t *testing.T) {
	t.Parallel()
	assert.Equal(t, http.StatusServiceUnavailable, adminStatus(context.DeadlineExceeded))
	assert.Equal(t, http.StatusNotFound, adminStatus(ErrUnknownCommand))
	assert.Equal(t, http.StatusInternalServerError, adminStatus(ErrUnexpected))
}

func serveWrapped(t *testing.T, serve func(wc *websocketConnection)) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serve(NewWebsocketConnection(conn))
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebsocketConnection(t *testing.T) {
	t.Parallel()

	t.Run("read and write", func(t *testing.T) {
		t.Parallel()
		conn := serveWrapped(t, func(wc *websocketConnection) {
			defer wc.Close("")
			data, err := wc.Read()
			if err != nil {
				return
			}
			wc.Write(data)
		})

		testData := []byte(`{"event":"player:ready"}`)
		conn.WriteMessage(websocket.TextMessage, testData)

		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := conn.ReadMessage()
		assert.NoError(t, err)
		assert.Equal(t, testData, msg)
	})

	t.Run("ping", func(t *testing.T) {
		t.Parallel()
		pinged := make(chan struct{})
		conn := serveWrapped(t, func(wc *websocketConnection) {
			defer wc.Close("")
			wc.Ping()
			wc.Read()
		})
		conn.SetPingHandler(func(string) error {
			close(pinged)
			return nil
		})

		conn.SetReadDeadline(time.Now().Add(time.Second))
		go conn.ReadMessage()
		select {
		case <-pinged:
		case <-time.After(time.Second):
			t.Fatal("no ping received")
		}
	})

	t.Run("close carries the reason", func(t *testing.T) {
		t.Parallel()
		conn := serveWrapped(t, func(wc *websocketConnection) {
			wc.Close("session-replaced")
			wc.Close("ignored")
		})

		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, _, err := conn.ReadMessage()
		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
		assert.Equal(t, "session-replaced", closeErr.Text)
	})
}
