package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	s := New(keyring.NewArrayKeyring(nil))

	_, err := s.Get("session")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("session", "payload"))
	got, err := s.Get("session")
	require.NoError(t, err)
	assert.Equal(t, "payload", got)

	require.NoError(t, s.Delete("session"))
	require.NoError(t, s.Delete("session"))

	_, err = s.Get("session")
	assert.ErrorIs(t, err, ErrNotFound)
}
