package journal

import (
	"github.com/clinisync/core/internal/clock"
	"github.com/google/uuid"
)

// Operation is the kind of mutation a Change records.
type Operation string

const (
	OpCreate Operation = "CREATE"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// Change is an immutable journal record of one domain mutation. Once
// written, only its sync bookkeeping (in JournalEntry) changes — the Change
// itself is never edited in place.
type Change struct {
	ID           uuid.UUID
	EntityType   string
	EntityID     uuid.UUID
	Operation    Operation
	Payload      map[string]any
	Timestamp    int64
	OriginDevice uuid.UUID
	Version      clock.VersionVector
}

// JournalEntry is the persistence form of a Change plus its sync state.
type JournalEntry struct {
	Change
	Synced     bool
	SyncedAt   *int64
	RetryCount int
	LastError  *string
}
