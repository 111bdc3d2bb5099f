package room

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPair_OrderIndependent(t *testing.T) {
	cases := [][2]string{
		{"u1", "u2"},
		{"65a1f0c2e4b0a1b2c3d4e5f6", "65a1f0c2e4b0a1b2c3d4e5f5"},
		{"b", "a"},
		{"same", "same"},
		{"Z", "a"},
	}
	for _, c := range cases {
		ab := NewPair(c[0], c[1])
		ba := NewPair(c[1], c[0])
		require.Equal(t, ab, ba)
		require.Equal(t, ab.ID(), ba.ID())
	}
}

func TestPair_ID(t *testing.T) {
	req := require.New(t)

	req.Equal(ID("u1_u2"), NewPair("u2", "u1").ID())
	req.Equal(ID("u1_u2"), NewPair("u1", "u2").ID())
	// uppercase sorts before lowercase in byte order
	req.Equal(ID("Z_a"), NewPair("a", "Z").ID())
}

func TestPair_Self(t *testing.T) {
	p := NewPair("u1", "u1")

	require.True(t, p.IsSelf())
	require.Equal(t, ID("u1_u1"), p.ID())
	require.Equal(t, "u1", p.Other("u1"))
}

func TestPair_Other(t *testing.T) {
	req := require.New(t)
	p := NewPair("u2", "u1")

	req.Equal("u2", p.Other("u1"))
	req.Equal("u1", p.Other("u2"))
	req.Equal("u1", p.Low())
	req.Equal("u2", p.High())
}

func TestValidParticipant(t *testing.T) {
	require.NoError(t, ValidParticipant("65a1f0c2e4b0a1b2c3d4e5f6"))
	require.NoError(t, ValidParticipant("3f9c1d5e-8a1b-4c2d-9e3f-0a1b2c3d4e5f"))
	require.ErrorIs(t, ValidParticipant(""), ErrEmptyParticipant)
	require.ErrorIs(t, ValidParticipant("   "), ErrEmptyParticipant)
	require.ErrorIs(t, ValidParticipant("a_b"), ErrInvalidParticipant)
}

func TestJobRoom_DoesNotCollideWithPairs(t *testing.T) {
	id := JobRoom("42")

	require.Equal(t, ID("job:42"), id)
	require.NotContains(t, id.String(), Separator)
}
