package game

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	outboxSize = 256
	maxFrame   = 16 * 1024
)

// client is the connection actor: ReadPump feeds the session, WritePump
// drains the outbox. Either pump exiting tears down both.
type client struct {
	id          string
	role        Role
	rateLimiter *rate.Limiter
	outbox      chan []byte
	pingChan    chan struct{}
	session     SessionGateway
	ctx         context.Context
	cancelCtx   context.CancelFunc
	once        sync.Once
	closeReason string
	logger      zerolog.Logger
}

func NewClient(id string, role Role, limit rate.Limit, burst int, logger zerolog.Logger) *client {
	ctx, cancel := context.WithCancel(context.Background())
	return &client{
		id:          id,
		role:        role,
		rateLimiter: rate.NewLimiter(limit, burst),
		outbox:      make(chan []byte, outboxSize),
		pingChan:    make(chan struct{}, 1),
		ctx:         ctx,
		cancelCtx:   cancel,
		logger:      logger.With().Str("conn", id).Str("role", string(role)).Logger(),
	}
}

func (c *client) Id() string { return c.id }

func (c *client) Role() Role { return c.role }

func (c *client) SetSession(s SessionGateway) {
	c.session = s
}

// Send never blocks the session.
func (c *client) Send(data []byte) error {
	if c.ctx.Err() != nil {
		return ErrSessionStopped
	}
	select {
	case c.outbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *client) Ping() error {
	select {
	case c.pingChan <- struct{}{}:
	default:
	}
	return nil
}

// CancelAndRelease stops both pumps. The first reason wins and becomes the
// close frame text.
func (c *client) CancelAndRelease(reason string) {
	c.once.Do(func() {
		c.closeReason = reason
		c.cancelCtx()
	})
}

func (c *client) reason() string {
	select {
	case <-c.ctx.Done():
		return c.closeReason
	default:
		return ""
	}
}

func (c *client) ReadPump(socket WebsocketConnection) {
	defer func() {
		c.session.RemoveMe(context.WithoutCancel(c.ctx), c)
		c.CancelAndRelease("connection-closed")
		socket.Close(c.reason())
	}()

	for {
		data, err := socket.Read()
		if err != nil {
			c.logger.Debug().Err(err).Msg("read loop ended")
			return
		}
		if c.ctx.Err() != nil {
			return
		}
		if len(data) > maxFrame || !c.rateLimiter.Allow() {
			continue
		}
		var packet ClientPacket
		if err := json.Unmarshal(data, &packet); err != nil || packet.Event == "" {
			continue
		}
		c.session.Send(c.ctx, NewClientPacketEnvelope(c, packet))
	}
}

func (c *client) WritePump(socket WebsocketConnection) {
	defer func() {
		c.CancelAndRelease("write-failed")
		socket.Close(c.reason())
	}()

	for {
		select {
		case data, ok := <-c.outbox:
			if !ok {
				return
			}
			if err := socket.Write(data); err != nil {
				return
			}
		case _, ok := <-c.pingChan:
			if !ok {
				return
			}
			if err := socket.Ping(); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}
