// Package config bootstraps a device's identity and storage location from
// the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clinisync/core/internal/cryptofield"
	"github.com/google/uuid"
)

// Config holds everything a device needs to start syncing.
type Config struct {
	// DatabasePath is where the change journal (and, in this demo, the
	// patients table) lives on disk.
	DatabasePath string

	// MasterKey is the 32-byte root key field-level encryption derives
	// per-device subkeys from.
	MasterKey []byte

	// DeviceID uniquely identifies this replica across every other one it
	// syncs with.
	DeviceID uuid.UUID
}

const (
	envDatabasePath  = "DATABASE_PATH"
	envEncryptionKey = "ENCRYPTION_KEY"
	envDeviceID      = "DEVICE_ID"

	defaultDataDir = "clinisync"
	defaultDBFile  = "journal.db"
)

// Load builds a Config from the process environment. DATABASE_PATH
// defaults to $XDG_DATA_HOME/clinisync/journal.db (or
// ~/.local/share/clinisync/journal.db). ENCRYPTION_KEY, if set, must be a
// 64-character hex string decoding to 32 bytes; if unset, a fresh key is
// generated — callers that need the same key across restarts must set it
// explicitly. DEVICE_ID, if set, must parse as a UUID; if unset, a fresh
// device ID is generated.
func Load() (Config, error) {
	dbPath, err := databasePath()
	if err != nil {
		return Config{}, err
	}

	key, err := masterKey()
	if err != nil {
		return Config{}, err
	}

	deviceID, err := deviceID()
	if err != nil {
		return Config{}, err
	}

	return Config{DatabasePath: dbPath, MasterKey: key, DeviceID: deviceID}, nil
}

func databasePath() (string, error) {
	if path := os.Getenv(envDatabasePath); path != "" {
		return path, nil
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	dir := filepath.Join(dataDir, defaultDataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create data dir %s: %w", dir, err)
	}
	return filepath.Join(dir, defaultDBFile), nil
}

func masterKey() ([]byte, error) {
	hexKey := os.Getenv(envEncryptionKey)
	if hexKey == "" {
		key, err := cryptofield.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("config: generate encryption key: %w", err)
		}
		return key, nil
	}

	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("config: %s is not valid hex: %w", envEncryptionKey, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("config: %s must decode to 32 bytes, got %d", envEncryptionKey, len(key))
	}
	return key, nil
}

func deviceID() (uuid.UUID, error) {
	raw := os.Getenv(envDeviceID)
	if raw == "" {
		return uuid.New(), nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("config: %s is not a valid UUID: %w", envDeviceID, err)
	}
	return id, nil
}
