package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserSafeMessage(t *testing.T) {
	require.Empty(t, UserSafeMessage(nil))
	require.Equal(t, "The requested record could not be found.", UserSafeMessage(ErrNotFound))
	require.Equal(t, "Email or password is incorrect.", UserSafeMessage(ErrInvalidCredentials))
	require.Equal(t, "Your session has expired. Please sign in again.", UserSafeMessage(ErrSessionRequired))

	wrapped := fmt.Errorf("load patient: %w", ErrNotFound)
	require.Equal(t, UserSafeMessage(ErrNotFound), UserSafeMessage(wrapped))

	internal := errors.New("dial tcp: connection refused")
	require.Equal(t, "Something went wrong. Please try again.", UserSafeMessage(internal))
}
