package cryptofield

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Interactive Argon2id parameters, matching the RFC 9106 interactive profile
// used by the reference implementation's default hasher.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
	saltLength   = 16
)

// HashPassword hashes password with Argon2id and a fresh random salt,
// encoding the salt and parameters alongside the hash in a single string so
// VerifyPassword has everything it needs to recompute the same hash.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("cryptofield: generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
	return encoded, nil
}

// VerifyPassword reports whether password matches a hash produced by
// HashPassword, recomputing Argon2id with the stored salt and parameters and
// comparing in constant time.
func VerifyPassword(password, stored string) (bool, error) {
	params, salt, hash, err := parseHash(stored)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, uint32(params.time), params.memory, params.threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(candidate, hash) == 1, nil
}

type argonParams struct {
	time, threads uint8
	memory        uint32
}

func parseHash(stored string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	var memory uint32
	var time, threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	return argonParams{time: time, memory: memory, threads: threads}, salt, hash, nil
}
