package cryptofield

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordAndVerify(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "expected argon2id-prefixed hash, got %q", hash)

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok, "the original password should verify")
}

func TestVerifyPasswordRejectsWrongPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	ok, err := VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok, "the wrong password should fail verification")
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	hash1, err := HashPassword("same password")
	require.NoError(t, err)
	hash2, err := HashPassword("same password")
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash2, "two hashes of the same password should differ by salt")
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", "not-a-hash")
	assert.Error(t, err, "a malformed stored hash should error")
}
