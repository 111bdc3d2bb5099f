package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/chat"
	"github.com/eldtechnologies/jobsearch/internal/metrics"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

// Socket events.
const (
	EventJoinRoom       = "joinRoom"
	EventJoinJob        = "joinJob"
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = chat.EventReceiveMessage
	EventNewApplication = "newApplication"
	EventApplicationSet = "applicationStatus"
	EventError          = "error"
)

// Sender runs the conversation service for a socket send.
type Sender interface {
	SendMessage(ctx context.Context, in chat.SendInput) (*chat.Result, error)
}

// Limiter throttles sendMessage events per sender.
type Limiter interface {
	AllowSocketMessage(ctx context.Context, senderID string, limit int, window time.Duration) bool
}

// Options tunes the gateway. Zero values fall back to defaults.
type Options struct {
	SendBuffer      int
	PingInterval    time.Duration
	MaxMessageBytes int64
	AllowedOrigins  []string // empty or "*" allows any origin
	MessageLimit    int      // sendMessage events per sender per minute, 0 disables
}

type joinRoomRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

type joinJobRequest struct {
	JobID string `json:"jobId"`
}

type sendMessageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Message    string `json:"message"`
}

// Gateway serves GET /ws and translates socket events into hub and service
// calls.
type Gateway struct {
	hub      *Hub
	sender   Sender
	limiter  Limiter
	opts     Options
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewGateway creates a gateway. limiter may be nil.
func NewGateway(hub *Hub, sender Sender, limiter Limiter, opts Options, logger zerolog.Logger) *Gateway {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 8192
	}
	g := &Gateway{
		hub:     hub,
		sender:  sender,
		limiter: limiter,
		opts:    opts,
		logger:  logger.With().Str("component", "gateway").Logger(),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(g.opts.AllowedOrigins) == 0 || lo.Contains(g.opts.AllowedOrigins, "*") {
		return true
	}
	return lo.Contains(g.opts.AllowedOrigins, origin)
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		g.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(conn, g.opts.SendBuffer, g.logger)
	metrics.WSConnections.Inc()
	c.logger.Debug().Str("remote", r.RemoteAddr).Msg("socket connected")

	go c.writePump(g.opts.PingInterval)
	g.readPump(r.Context(), c)
}

func (g *Gateway) readPump(ctx context.Context, c *Client) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("read pump panicked")
		}
		g.hub.Leave(c)
		c.close()
		metrics.WSConnections.Dec()
		c.logger.Debug().Msg("socket disconnected")
	}()

	c.conn.SetReadLimit(g.opts.MaxMessageBytes)
	pongWait := g.opts.PingInterval * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug().Err(err).Msg("socket read failed")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		g.handle(ctx, c, data)
	}
}

// handle dispatches one inbound frame. Failures are reported to the
// originating connection only.
func (g *Gateway) handle(ctx context.Context, c *Client, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.emit(EventError, "invalid frame")
		return
	}

	switch frame.Event {
	case EventJoinRoom:
		var req joinRoomRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			c.emit(EventError, "invalid joinRoom payload")
			return
		}
		if room.ValidParticipant(req.SenderID) != nil || room.ValidParticipant(req.ReceiverID) != nil {
			c.emit(EventError, "senderId and receiverId are required")
			return
		}
		id := room.NewPair(req.SenderID, req.ReceiverID).ID()
		if g.hub.Join(c, id) {
			c.logger.Debug().Str("room", id.String()).Msg("joined room")
		}

	case EventJoinJob:
		var req joinJobRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil || req.JobID == "" {
			c.emit(EventError, "jobId is required")
			return
		}
		g.hub.Join(c, room.JobRoom(req.JobID))

	case EventSendMessage:
		var req sendMessageRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			c.emit(EventError, "invalid sendMessage payload")
			return
		}
		if g.opts.MessageLimit > 0 && g.limiter != nil &&
			!g.limiter.AllowSocketMessage(ctx, req.SenderID, g.opts.MessageLimit, time.Minute) {
			metrics.RateLimitHits.WithLabelValues("socket:sendMessage").Inc()
			c.emit(EventError, "too many messages")
			return
		}
		_, err := g.sender.SendMessage(ctx, chat.SendInput{
			SenderID:   req.SenderID,
			ReceiverID: req.ReceiverID,
			Body:       req.Message,
			Transport:  chat.TransportSocket,
		})
		if err != nil {
			switch apperr.CodeOf(err) {
			case apperr.CodeStore, apperr.CodeInternal:
				c.logger.Error().Err(err).Msg("sendMessage failed")
				c.emit(EventError, "failed to send message")
			default:
				c.emit(EventError, apperr.ReasonOf(err, "failed to send message"))
			}
		}

	default:
		c.emit(EventError, "unknown event")
	}
}
