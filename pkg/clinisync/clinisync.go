// Package clinisync is the public facade over the replication engine: a
// small Options/Open surface a host application wires up once to get a
// journal, sync engine, and demo patient repository sharing one database.
package clinisync

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clinisync/core/internal/config"
	"github.com/clinisync/core/internal/cryptofield"
	"github.com/clinisync/core/internal/journal"
	"github.com/clinisync/core/internal/monitoring"
	"github.com/clinisync/core/internal/patientdemo"
	"github.com/clinisync/core/internal/syncengine"
	"github.com/clinisync/core/internal/transport/httptransport"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Options configures a Device.
type Options struct {
	// DatabasePath is where the change journal and demo patient store
	// live. Required.
	DatabasePath string

	// MasterKey is the 32-byte root key field encryption derives
	// per-device subkeys from. Required.
	MasterKey []byte

	// DeviceID identifies this replica. Required.
	DeviceID uuid.UUID

	// RemoteURL is the base URL of the collaborator this device pushes
	// to and pulls from, e.g. "https://sync.example.org". Required.
	RemoteURL string

	// Logger overrides the engine's zap.Logger; a no-op logger is used
	// if nil. Pass the embedded *zap.Logger field of an
	// internal/logging.Logger (l.Logger) to use this module's own
	// logging setup.
	Logger *zap.Logger
}

// FromEnv builds Options by reading config.Load and pairing it with
// remoteURL, the one setting that has no single well-known environment
// variable name across deployments.
func FromEnv(remoteURL string) (Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return Options{}, err
	}
	return Options{
		DatabasePath: cfg.DatabasePath,
		MasterKey:    cfg.MasterKey,
		DeviceID:     cfg.DeviceID,
		RemoteURL:    remoteURL,
	}, nil
}

// Device is the public handle onto one replica's journal, sync engine, and
// demo patient repository.
type Device struct {
	journal  *journal.Store
	rawDB    *sql.DB
	engine   *syncengine.Engine
	patients *patientdemo.Repository
	deviceID uuid.UUID
}

// Open constructs a Device from opts: it opens the journal database,
// derives this device's field-encryption subkey, and wires an engine
// talking to opts.RemoteURL over HTTP.
func Open(ctx context.Context, opts Options) (*Device, error) {
	if ctx == nil {
		return nil, fmt.Errorf("clinisync: context cannot be nil")
	}
	if opts.DatabasePath == "" {
		return nil, fmt.Errorf("clinisync: DatabasePath cannot be empty")
	}
	if len(opts.MasterKey) != 32 {
		return nil, fmt.Errorf("clinisync: MasterKey must be 32 bytes, got %d", len(opts.MasterKey))
	}
	if opts.RemoteURL == "" {
		return nil, fmt.Errorf("clinisync: RemoteURL cannot be empty")
	}

	store, err := journal.Open(opts.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("clinisync: open journal: %w", err)
	}

	deviceKey, err := cryptofield.DeriveDeviceKey(opts.MasterKey, opts.DeviceID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("clinisync: derive device key: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := httptransport.New(opts.RemoteURL)
	engine := syncengine.New(store, client, opts.DeviceID,
		syncengine.WithLogger(logger),
		syncengine.WithMetrics(monitoring.NewMetrics()),
	)

	rawDB, err := sql.Open("sqlite", opts.DatabasePath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("clinisync: open patient store: %w", err)
	}

	// The blind index uses the master key directly, not the per-device
	// subkey: every replica must hash the same MRN to the same index
	// value for cross-device lookups to agree.
	patients, err := patientdemo.NewRepository(rawDB, engine, deviceKey, opts.MasterKey)
	if err != nil {
		store.Close()
		rawDB.Close()
		return nil, fmt.Errorf("clinisync: open patient repository: %w", err)
	}

	return &Device{journal: store, rawDB: rawDB, engine: engine, patients: patients, deviceID: opts.DeviceID}, nil
}

// Sync runs one full push/pull cycle against the configured collaborator.
func (d *Device) Sync(ctx context.Context) error {
	return d.engine.PushPull(ctx)
}

// Status reports the engine's current state and backlog size.
func (d *Device) Status(ctx context.Context) (syncengine.Status, error) {
	return d.engine.GetStatus(ctx)
}

// Patients exposes the demo patient repository for callers that want to
// see the encryption/journal wiring exercised end to end.
func (d *Device) Patients() *patientdemo.Repository {
	return d.patients
}

// Engine returns the underlying sync engine for advanced use.
func (d *Device) Engine() *syncengine.Engine {
	return d.engine
}

// DeviceID returns this replica's identity.
func (d *Device) DeviceID() uuid.UUID {
	return d.deviceID
}

// Close releases both underlying database handles: the journal's and the
// patient repository's separate *sql.DB over the same file.
func (d *Device) Close() error {
	err := d.journal.Close()
	if rawErr := d.rawDB.Close(); rawErr != nil && err == nil {
		err = rawErr
	}
	return err
}
