package encodevorbis

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "full error",
			err:      newError(ImportMemcpy, KindInvalidAddress, errors.New("root"), "invalid destination %#x", 0),
			contains: []string{"[memcpy]", "invalid_address", "invalid destination 0x0", "caused by: root"},
		},
		{
			name:     "minimal error",
			err:      &Error{Kind: KindGuestAbort},
			contains: []string{"guest_abort"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("EncodeVorbis(5) failed: %w", newError(ImportExit, KindGuestAbort, nil, "exit(3) called"))

	assert.ErrorIs(t, err, ErrGuestAbort)
	assert.NotErrorIs(t, err, ErrInvalidAddress)

	var he *Error
	assert.ErrorAs(t, err, &he)
	assert.Equal(t, ImportExit, he.Op)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := newError("load", KindSourceUnavailable, cause, "sample file")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}
