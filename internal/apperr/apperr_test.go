package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_WrapsCause(t *testing.T) {
	err := Store("append message", context.DeadlineExceeded)

	require.Error(t, err)
	require.Equal(t, CodeStore, CodeOf(err))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Contains(t, err.Error(), "append message")
}

func TestStore_NilAndIdempotent(t *testing.T) {
	require.NoError(t, Store("noop", nil))

	inner := Store("find thread", errors.New("boom"))
	outer := Store("send", inner)
	require.Same(t, inner, outer)
}

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodeValidation, CodeOf(Validation("body is required")))
	require.Equal(t, CodeNotAuthorized, CodeOf(fmt.Errorf("send: %w", NotAuthorized("nope"))))
	require.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
	require.Equal(t, CodeInternal, CodeOf(nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("history: %w", NotFound("no chat history found"))

	require.ErrorIs(t, err, NotFound(""))
	require.NotErrorIs(t, err, Validation(""))
}

func TestReasonOf(t *testing.T) {
	require.Equal(t, "body is required", ReasonOf(Validation("body is required"), "x"))
	require.Equal(t, "fallback", ReasonOf(errors.New("raw"), "fallback"))
}

func TestStore_KeepsExistingCode(t *testing.T) {
	err := Store("append message", NotFound("thread not found"))

	require.Equal(t, CodeNotFound, CodeOf(err))
}

func TestConstructors(t *testing.T) {
	cases := []struct {
		err  *Error
		code Code
	}{
		{Validation("bad"), CodeValidation},
		{NotAuthorized("bad"), CodeNotAuthorized},
		{NotFound("bad"), CodeNotFound},
		{Conflict("bad"), CodeConflict},
		{New(CodeStore, "bad", errors.New("cause")), CodeStore},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			req := require.New(t)
			req.Equal(tc.code, tc.err.Code)
			req.Equal("bad", tc.err.Reason)
			req.Contains(tc.err.Error(), string(tc.code))
		})
	}
}
