package cryptofield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T) []byte {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	return key
}

func TestGenerateKeyLength(t *testing.T) {
	key := mustKey(t)
	assert.Len(t, key, 32)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := mustKey(t)
	plaintext := []byte("555 Willow Ave, Springfield")

	blob, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	require.NotEmpty(t, blob)

	got, err := Decrypt(blob, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	key := mustKey(t)
	plaintext := []byte("same value twice")

	blob1, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	blob2, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, blob1, blob2, "two encryptions of the same plaintext should differ")
}

func TestDecryptWrongKeyFails(t *testing.T) {
	key := mustKey(t)
	other := mustKey(t)

	blob, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	_, err = Decrypt(blob, other)
	assert.ErrorIs(t, err, ErrAuthTagMismatch)
}

func TestDecryptTamperedBlobFails(t *testing.T) {
	key := mustKey(t)
	blob, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	tampered := []byte(blob)
	tampered[len(tampered)-1] ^= 1
	_, err = Decrypt(string(tampered), key)
	assert.Error(t, err, "tampered blob should fail decryption")
}

func TestDecryptMalformedBlobFails(t *testing.T) {
	key := mustKey(t)
	_, err := Decrypt("not-valid-base64!!!", key)
	assert.ErrorIs(t, err, ErrMalformedBlob)

	_, err = Decrypt("c2hvcnQ=", key)
	assert.ErrorIs(t, err, ErrMalformedBlob, "a too-short blob should also be malformed")
}

func TestEncryptRejectsWrongKeyLength(t *testing.T) {
	_, err := Encrypt([]byte("x"), []byte("too-short"))
	assert.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestEncryptStringDecryptString(t *testing.T) {
	key := mustKey(t)
	blob, err := EncryptString("jane.doe@example.com", key)
	require.NoError(t, err)

	got, err := DecryptString(blob, key)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", got)
}
