package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFStore(t *testing.T) {
	store, err := NewCSRFStore(10, time.Hour)
	require.NoError(t, err)
	defer store.Stop()

	token, err := store.Issue("192.0.2.1")
	require.NoError(t, err)
	assert.Len(t, token, 32)

	assert.True(t, store.Validate("192.0.2.1", token))
	assert.False(t, store.Validate("192.0.2.2", token), "token is bound to its client")
	assert.False(t, store.Validate("192.0.2.1", ""))

	rotated, err := store.Issue("192.0.2.1")
	require.NoError(t, err)
	assert.NotEqual(t, token, rotated)
	assert.False(t, store.Validate("192.0.2.1", token), "reissuing replaces the old token")
	assert.True(t, store.Validate("192.0.2.1", rotated))
}

func TestCSRFStore_Expiry(t *testing.T) {
	store, err := NewCSRFStore(10, 20*time.Millisecond)
	require.NoError(t, err)
	defer store.Stop()

	token, err := store.Issue("client")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	assert.False(t, store.Validate("client", token))
}
