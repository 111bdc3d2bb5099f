// Package realtime fans chat and job events out to websocket connections
// grouped into rooms.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/jobsearch/internal/metrics"
	"github.com/eldtechnologies/jobsearch/internal/room"
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// Hub tracks room membership. Membership is transient: a client that
// disconnects leaves every room and has to join again after reconnecting.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[room.ID]map[*Client]struct{}
	clients map[*Client]map[room.ID]struct{}
	logger  zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:   make(map[room.ID]map[*Client]struct{}),
		clients: make(map[*Client]map[room.ID]struct{}),
		logger:  logger.With().Str("component", "hub").Logger(),
	}
}

// Join adds c to the room. Joining twice is a no-op; the return value reports
// whether c was newly added. Closed clients are ignored.
func (h *Hub) Join(c *Client, id room.ID) bool {
	if c == nil || c.isClosed() {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[id]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[id] = members
	}
	if _, ok := members[c]; ok {
		return false
	}
	members[c] = struct{}{}

	joined, ok := h.clients[c]
	if !ok {
		joined = make(map[room.ID]struct{})
		h.clients[c] = joined
	}
	joined[id] = struct{}{}
	return true
}

// Leave removes c from every room it joined.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id := range h.clients[c] {
		members := h.rooms[id]
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, id)
		}
	}
	delete(h.clients, c)
}

// Broadcast delivers an event to the members of a room at the time of the
// call and returns how many connections it was queued for. Nothing is
// replayed to later joiners. A member whose queue is full is disconnected.
func (h *Hub) Broadcast(id room.ID, event string, payload any) int {
	data, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("failed to encode broadcast")
		return 0
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[id]))
	for c := range h.rooms[id] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range members {
		if c.enqueue(data) {
			delivered++
			continue
		}
		h.Leave(c)
	}
	metrics.Broadcasts.WithLabelValues(event).Inc()
	return delivered
}

// Members returns the number of connections in a room.
func (h *Hub) Members(id room.ID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[id])
}

// Rooms returns the number of rooms with at least one member.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
