package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("k"))
	token, exp, err := Generate(opts, "user-1", "alice")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(opts.TTL), exp, time.Minute)

	sub, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("k1")), "user-1", "alice")
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("k2")), token)
	assert.Error(t, err)
}

func TestVerifyExpiredToken(t *testing.T) {
	opts := DefaultOptions([]byte("k"))
	opts.TTL = -time.Minute
	token, _, err := Generate(opts, "user-1", "alice")
	require.NoError(t, err)

	_, err = Verify(opts, token)
	assert.Error(t, err)
}

func TestUnsupportedAlgRejected(t *testing.T) {
	opts := DefaultOptions([]byte("k"))
	opts.Alg = "RS256"
	_, _, err := Generate(opts, "user-1", "alice")
	assert.Error(t, err)
}
