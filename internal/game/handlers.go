package game

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/akapranchikova/quizzz/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

const (
	defaultMatchesLimit = 20
	maxMatchesLimit     = 100
	maxAdminBody        = 4 * 1024
	qrSize              = 320
)

// Gateway is the part of *Session the HTTP layer uses.
type Gateway interface {
	SessionGateway
	Attach(ctx context.Context, c Client) error
	Admin(ctx context.Context, event string, data []byte) error
	Snapshot(ctx context.Context) ([]byte, error)
}

type HandlerOptions struct {
	PublicURL string
	RateLimit rate.Limit
	RateBurst int
}

type GameHandler struct {
	session  Gateway
	archive  MatchArchive
	upgrader websocket.Upgrader
	options  HandlerOptions
	logger   zerolog.Logger
}

// NewGameHandler leaves origin checks to the router middleware. archive may be nil.
func NewGameHandler(session Gateway, archive MatchArchive, options HandlerOptions, logger zerolog.Logger) *GameHandler {
	return &GameHandler{
		session: session,
		archive: archive,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		options: options,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

func (h *GameHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", h.WebsocketHandler)
	r.GET("/join-qr", h.JoinQRHandler)
	api := r.Group("/api")
	api.GET("/state", h.StateHandler)
	api.GET("/matches", h.MatchesHandler)
	admin := api.Group("/admin")
	admin.POST("/start", h.AdminHandler(EventAdminStartGame))
	admin.POST("/reset", h.AdminHandler(EventAdminReset))
	admin.POST("/reload", h.AdminHandler(EventAdminReloadData))
	admin.POST("/next", h.AdminHandler(EventAdminNext))
	admin.POST("/pick-category", h.AdminHandler(EventAdminPickCategory))
}

func parseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case "", RoleController:
		return RoleController, true
	case RoleScreen, RoleAdmin:
		return Role(raw), true
	}
	return "", false
}

func (h *GameHandler) WebsocketHandler(ctx *gin.Context) {
	role, ok := parseRole(ctx.Query("role"))
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-role"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}
	socket := NewWebsocketConnection(conn)

	c := NewClient(uuid.NewString(), role, h.options.RateLimit, h.options.RateBurst, h.logger)
	c.SetSession(h.session)
	if err := h.session.Attach(ctx.Request.Context(), c); err != nil {
		socket.Close(err.Error())
		return
	}
	h.logger.Debug().Str("conn", c.Id()).Str("role", string(role)).Str("ip", ctx.ClientIP()).Msg("websocket connected")

	go c.WritePump(socket)
	c.ReadPump(socket)
}

func (h *GameHandler) StateHandler(ctx *gin.Context) {
	data, err := h.session.Snapshot(ctx.Request.Context())
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	ctx.Data(http.StatusOK, "application/json", data)
}

func adminStatus(err error) int {
	switch {
	case errors.Is(err, ErrBadRequestFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownCommand):
		return http.StatusNotFound
	case errors.Is(err, ErrNoActivePlayers):
		return http.StatusConflict
	case errors.Is(err, ErrSessionStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *GameHandler) AdminHandler(event string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxAdminBody))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrBadRequestFormat.Error()})
			return
		}
		if err := h.session.Admin(ctx.Request.Context(), event, body); err != nil {
			ctx.AbortWithStatusJSON(adminStatus(err), gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// joinURL is the controller address encoded in the QR code.
func (h *GameHandler) joinURL(ctx *gin.Context) string {
	if h.options.PublicURL != "" {
		return h.options.PublicURL
	}
	scheme := "http"
	if ctx.Request.TLS != nil || ctx.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + ctx.Request.Host + "/controller"
}

func (h *GameHandler) JoinQRHandler(ctx *gin.Context) {
	png, err := qrcode.Encode(h.joinURL(ctx), qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error().Err(err).Msg("qr encoding failed")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": ErrUnexpected.Error()})
		return
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, "image/png", png)
}

func (h *GameHandler) MatchesHandler(ctx *gin.Context) {
	limit := defaultMatchesLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-limit"})
			return
		}
		limit = min(n, maxMatchesLimit)
	}
	if h.archive == nil {
		ctx.JSON(http.StatusOK, []domain.MatchResult{})
		return
	}
	matches, err := h.archive.RecentMatches(ctx.Request.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("listing matches failed")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": domain.ErrDatabase.Error()})
		return
	}
	if matches == nil {
		matches = []domain.MatchResult{}
	}
	ctx.JSON(http.StatusOK, matches)
}
