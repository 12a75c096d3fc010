package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_Hash(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	// Salted: the same password never hashes twice to the same value.
	again, err := hasher.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}

func TestNewBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	t.Parallel()

	for _, cost := range []int{0, -1, bcrypt.MaxCost + 1} {
		assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(cost).cost)
	}
}

func TestBcryptHasher_Compare(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("secret123")
	require.NoError(t, err)

	assert.NoError(t, hasher.Compare(hash, "secret123"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong-password"), ErrPasswordMismatch)

	err = hasher.Compare("not-a-bcrypt-hash", "secret123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}
