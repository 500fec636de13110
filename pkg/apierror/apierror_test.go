package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	err := New(CodeSessionExpired, "session expired, please log in again", "", http.StatusUnauthorized)
	wrapped := fmt.Errorf("load profile: %w", err)

	require.ErrorIs(t, wrapped, ErrSessionExpired)
	require.NotErrorIs(t, wrapped, ErrRequestFailed)
	require.False(t, errors.Is(errors.New("plain"), ErrSessionExpired))
}

func TestMessageOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, "server says no", MessageOf(New(CodeRequestFailed, "server says no", "", 400), "fallback"))
	require.Equal(t, "fallback", MessageOf(errors.New("boom"), "fallback"))
	require.Equal(t, "fallback", MessageOf(New(CodeRequestFailed, "", "", 400), "fallback"))
}

func TestErrorString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "UNREACHABLE: error fetching animals (dial tcp)", New(CodeUnreachable, "error fetching animals", "dial tcp", 0).Error())
	require.Equal(t, "REQUEST_FAILED: nope", New(CodeRequestFailed, "nope", "", 500).Error())
}
