package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/jobsearch/internal/metrics"
)

const writeWait = 10 * time.Second

// Client is one websocket connection. Outbound frames go through a bounded
// queue drained by writePump.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, buffer int, logger zerolog.Logger) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		logger: logger.With().Str("conn_id", uuid.NewString()).Logger(),
	}
}

// enqueue queues a frame without blocking. A full queue closes the client.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		metrics.DroppedFrames.Inc()
		c.logger.Warn().Msg("send queue full, dropping connection")
		c.closeLocked()
		return false
	}
}

func (c *Client) emit(event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", event).Msg("failed to encode frame")
		return
	}
	c.enqueue(data)
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// writePump owns all writes to the connection.
func (c *Client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("write pump panicked")
		}
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug().Err(err).Msg("ws write failed")
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
