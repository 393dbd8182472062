package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "wraps underlying message",
			err:  NewExitError(errors.New("boom"), ExitSystem),
			want: "boom",
		},
		{
			name: "nil underlying error",
			err:  NewExitError(nil, ExitUser),
			want: "exit code 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	t.Parallel()

	wrapped := NewUserError(ErrServerNotFound, "run: mcpm ls")
	require.ErrorIs(t, wrapped, ErrServerNotFound)
	assert.Equal(t, ExitUser, wrapped.Code)
	assert.Equal(t, "run: mcpm ls", wrapped.Suggestion)
}

func TestNewSystemError(t *testing.T) {
	t.Parallel()

	err := NewSystemError(errors.New("disk full"), "free up space")
	assert.Equal(t, ExitSystem, err.Code)
	assert.EqualError(t, err, "disk full")
}
