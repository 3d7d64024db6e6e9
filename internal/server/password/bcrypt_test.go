package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestHasher_RoundTrip(t *testing.T) {
	h := newTestHasher(t)

	for _, p := range []string{"secret123", "", "пароль", strings.Repeat("x", 72)} {
		hash, err := h.Hash(p)
		require.NoError(t, err)
		assert.NotEqual(t, p, hash)
		assert.True(t, h.Compare(p, hash), "password %q must match its own hash", p)
		assert.False(t, h.Compare(p+"!", hash), "different password must not match")
	}
}

func TestHasher_CompareRejectsBytesPastLimit(t *testing.T) {
	h := newTestHasher(t)
	p := strings.Repeat("a", MaxBytes)
	hash, err := h.Hash(p)
	require.NoError(t, err)

	assert.True(t, h.Compare(p, hash))
	assert.False(t, h.Compare(p+"anything", hash))
	assert.False(t, h.Compare(p+"a", hash))
}

func TestHasher_Salted(t *testing.T) {
	h := newTestHasher(t)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasher_UsesConfiguredCost(t *testing.T) {
	h, err := NewHasher(5)
	require.NoError(t, err)
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
}

func TestHasher_MalformedHashIsMismatch(t *testing.T) {
	h := newTestHasher(t)
	assert.False(t, h.Compare("pw", ""))
	assert.False(t, h.Compare("pw", "not-a-hash"))
	assert.False(t, h.Compare("pw", "$2a$10$short"))
}

func TestHasher_TooLongRejected(t *testing.T) {
	h := newTestHasher(t)
	_, err := h.Hash(strings.Repeat("x", 73))
	require.Error(t, err)
}

func TestNewHasher_Cost(t *testing.T) {
	h, err := NewHasher(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, h.cost)

	_, err = NewHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)
	_, err = NewHasher(1)
	require.Error(t, err)
}
