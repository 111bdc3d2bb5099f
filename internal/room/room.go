// Package room derives canonical room identities for real-time channels.
package room

import (
	"errors"
	"strings"
)

// Separator joins the two participants of a pair room. Valid participant
// identifiers never contain it.
const Separator = "_"

const jobPrefix = "job:"

var (
	ErrEmptyParticipant   = errors.New("participant id is required")
	ErrInvalidParticipant = errors.New("participant id must not contain " + Separator)
)

// ID is the wire form of a room name.
type ID string

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// Pair is an unordered pair of participants stored in canonical order.
// The zero value is not a valid pair.
type Pair struct {
	low  string
	high string
}

// NewPair returns the canonical pair for a and b. NewPair(a, b) == NewPair(b, a).
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{low: a, high: b}
}

// ID returns the room name shared by both participants, e.g. "u1_u2".
func (p Pair) ID() ID {
	return ID(p.low + Separator + p.high)
}

// Low returns the lexicographically smaller participant.
func (p Pair) Low() string { return p.low }

// High returns the lexicographically larger participant.
func (p Pair) High() string { return p.high }

// IsSelf reports whether both participants are the same identity.
func (p Pair) IsSelf() bool {
	return p.low == p.high
}

// Other returns the participant that is not id. For a self pair it returns id.
func (p Pair) Other(id string) string {
	if p.low == id {
		return p.high
	}
	return p.low
}

// ValidParticipant checks that id can take part in a pair room.
func ValidParticipant(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyParticipant
	}
	if strings.Contains(id, Separator) {
		return ErrInvalidParticipant
	}
	return nil
}

// JobRoom returns the room that receives application events for a job.
func JobRoom(jobID string) ID {
	return ID(jobPrefix + jobID)
}
