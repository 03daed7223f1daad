package cryptofield

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const deviceKeyInfo = "core-device-key"

// DeriveDeviceKey derives a 32-byte per-device subkey from masterKey via
// HKDF-SHA256, salted with deviceID's raw bytes. Two devices always derive
// different keys from the same master key; the same device always derives
// the same key.
func DeriveDeviceKey(masterKey []byte, deviceID uuid.UUID) ([]byte, error) {
	salt := deviceID[:]
	reader := hkdf.New(sha256.New, masterKey, salt, []byte(deviceKeyInfo))

	key := make([]byte, keyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("cryptofield: derive device key: %w", err)
	}
	return key, nil
}
