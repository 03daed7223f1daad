package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/clinisync/core/internal/clock"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// retentionWindow is how long a synced entry is kept before Cleanup removes
// it, per the 7-day retention invariant.
const retentionWindow = 7 * 24 * time.Hour

// Store is the durable change journal. All writes go through a single
// *sql.DB guarded by mu, mirroring the single-writer discipline the rest of
// the engine assumes — SQLite tolerates concurrent readers but a shared
// mutex keeps write ordering deterministic and avoids SQLITE_BUSY under the
// default journal mode.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens the SQLite database at path and ensures its schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records change in the journal. It is idempotent on change.ID: a
// second append of the same ID is a no-op success, not an error.
func (s *Store) Append(ctx context.Context, change Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(change.Payload)
	if err != nil {
		return fmt.Errorf("journal: marshal payload: %w", err)
	}
	version, err := json.Marshal(change.Version)
	if err != nil {
		return fmt.Errorf("journal: marshal version: %w", err)
	}

	// INSERT OR IGNORE makes a re-append of the same id a silent no-op rather
	// than a constraint error, which is what idempotency requires for a
	// retried push. It also means a re-append of the same id carrying a
	// different payload is silently dropped rather than rejected — that case
	// should never happen (a change ID is only ever minted once), so callers
	// that produce it have a bug, not a conflict for this store to resolve.
	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sync_queue (
			id, entity_type, entity_id, operation, data_json,
			timestamp, device_id, version_json, synced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)
	`,
		change.ID.String(), change.EntityType, change.EntityID.String(), string(change.Operation),
		string(payload), change.Timestamp, change.OriginDevice.String(), string(version),
	)
	if err != nil {
		return fmt.Errorf("journal: append %s: %w", change.ID, err)
	}
	return nil
}

// Pending returns up to limit unsynced entries ordered by timestamp
// ascending, then by (origin_device, id) for a deterministic tie-break.
func (s *Store) Pending(ctx context.Context, limit int) ([]JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, operation, data_json,
		       timestamp, device_id, version_json, retry_count, error_message
		FROM sync_queue
		WHERE synced = 0
		ORDER BY timestamp ASC, device_id ASC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query pending: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("journal: scan pending row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate pending: %w", err)
	}
	return entries, nil
}

func scanEntry(scan func(dest ...any) error) (JournalEntry, error) {
	var (
		id, entityID, operation, payload, deviceID, versionJSON string
		entityType                                              string
		timestamp                                               int64
		retryCount                                              int
		errorMessage                                            sql.NullString
	)
	if err := scan(&id, &entityType, &entityID, &operation, &payload,
		&timestamp, &deviceID, &versionJSON, &retryCount, &errorMessage); err != nil {
		return JournalEntry{}, err
	}

	change := Change{
		EntityType: entityType,
		Operation:  Operation(operation),
		Timestamp:  timestamp,
	}

	var err error
	if change.ID, err = uuid.Parse(id); err != nil {
		return JournalEntry{}, fmt.Errorf("parse id: %w", err)
	}
	if change.EntityID, err = uuid.Parse(entityID); err != nil {
		return JournalEntry{}, fmt.Errorf("parse entity_id: %w", err)
	}
	if change.OriginDevice, err = uuid.Parse(deviceID); err != nil {
		return JournalEntry{}, fmt.Errorf("parse device_id: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &change.Payload); err != nil {
		return JournalEntry{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	version := clock.New()
	if err := json.Unmarshal([]byte(versionJSON), &version); err != nil {
		return JournalEntry{}, fmt.Errorf("unmarshal version: %w", err)
	}
	change.Version = version

	entry := JournalEntry{Change: change, RetryCount: retryCount}
	if errorMessage.Valid {
		entry.LastError = &errorMessage.String
	}
	return entry, nil
}

// MarkSynced marks each id acknowledged. IDs that do not exist are ignored
// silently, matching the journal's documented contract.
func (s *Store) MarkSynced(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin mark_synced: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	stmt, err := tx.PrepareContext(ctx, `UPDATE sync_queue SET synced = 1, synced_at = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("journal: prepare mark_synced: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, now, id.String()); err != nil {
			return fmt.Errorf("journal: mark_synced %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: commit mark_synced: %w", err)
	}
	return nil
}

// RecordError increments an entry's retry counter and stores the latest
// error text. It never flips synced.
func (s *Store) RecordError(ctx context.Context, id uuid.UUID, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_queue SET error_message = ?, retry_count = retry_count + 1 WHERE id = ?`,
		errText, id.String(),
	)
	if err != nil {
		return fmt.Errorf("journal: record_error %s: %w", id, err)
	}
	return nil
}

// PendingCount returns the number of unsynced entries.
func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue WHERE synced = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("journal: pending_count: %w", err)
	}
	return count, nil
}

// GetMetadata returns the value stored under key, or ("", false) if unset.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("journal: get_metadata %s: %w", key, err)
	}
	return value, true, nil
}

// SetMetadata upserts key with value, refreshing updated_at.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sync_metadata (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("journal: set_metadata %s: %w", key, err)
	}
	return nil
}

// Cleanup deletes entries that have been synced for at least the retention
// window, and returns how many rows were removed.
func (s *Store) Cleanup(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-retentionWindow).UnixMilli()
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sync_queue WHERE synced = 1 AND synced_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("journal: cleanup: %w", err)
	}
	return result.RowsAffected()
}
