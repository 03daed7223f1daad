// Package cryptofield implements field-level envelope encryption for PHI
// columns: AES-256-GCM with a random nonce per call, HKDF-based per-device
// key derivation, Argon2id password hashing, and an HMAC blind index for
// looking up encrypted columns by exact value.
package cryptofield

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

const keyLength = 32

// GenerateKey returns a fresh random 256-bit key from the OS CSPRNG.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("cryptofield: generate key: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext under key and returns a base64-encoded blob of
// nonce || ciphertext || tag. key must be exactly 32 bytes. Every call uses
// a freshly generated nonce, so two encryptions of the same plaintext under
// the same key never produce the same blob.
func Encrypt(plaintext []byte, key []byte) (string, error) {
	if len(key) != keyLength {
		return "", ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cryptofield: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cryptofield: new gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cryptofield: generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It returns ErrInvalidKeyLength if key is not 32
// bytes, ErrMalformedBlob if blob is not valid base64 or decodes to fewer
// bytes than a nonce plus tag, and ErrAuthTagMismatch when the tag does not
// verify (tampering or the wrong key) — those two causes are not
// distinguished further so a caller cannot use Decrypt as a key-guessing
// oracle.
func Decrypt(blob string, key []byte) ([]byte, error) {
	if len(key) != keyLength {
		return nil, ErrInvalidKeyLength
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, ErrMalformedBlob
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptofield: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptofield: new gcm: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize+gcm.Overhead() {
		return nil, ErrMalformedBlob
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthTagMismatch
	}
	return plaintext, nil
}

// EncryptString is a convenience wrapper for string-valued PHI fields.
func EncryptString(plaintext string, key []byte) (string, error) {
	return Encrypt([]byte(plaintext), key)
}

// DecryptString is a convenience wrapper for string-valued PHI fields.
func DecryptString(blob string, key []byte) (string, error) {
	plaintext, err := Decrypt(blob, key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
