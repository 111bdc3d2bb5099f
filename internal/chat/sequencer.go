package chat

import (
	"sync"

	"github.com/eldtechnologies/jobsearch/internal/room"
)

// sequencer serializes sends per room so a pair's messages are broadcast in
// the order they were persisted. Entries are dropped once nobody holds them.
type sequencer struct {
	mu    sync.Mutex
	slots map[room.ID]*slot
}

type slot struct {
	mu   sync.Mutex
	refs int
}

func newSequencer() *sequencer {
	return &sequencer{slots: make(map[room.ID]*slot)}
}

// lock blocks until id is free and returns the matching unlock.
func (s *sequencer) lock(id room.ID) func() {
	s.mu.Lock()
	sl, ok := s.slots[id]
	if !ok {
		sl = &slot{}
		s.slots[id] = sl
	}
	sl.refs++
	s.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		s.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(s.slots, id)
		}
		s.mu.Unlock()
	}
}

// size returns the number of rooms with a pending or running send.
func (s *sequencer) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}
