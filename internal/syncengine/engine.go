// Package syncengine orchestrates the replication loop: it drains the
// change journal into push envelopes, applies inbound changes through the
// conflict resolver, and tracks a small state machine so callers can tell a
// healthy idle engine from one stuck mid-cycle or offline.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/clinisync/core/internal/clock"
	"github.com/clinisync/core/internal/journal"
	"github.com/clinisync/core/internal/monitoring"
	"github.com/clinisync/core/internal/protocol"
	"github.com/clinisync/core/internal/resolver"
	"github.com/clinisync/core/internal/syncerr"
	"github.com/clinisync/core/internal/tracing"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// State is a position in the engine's sync state machine.
type State int

const (
	Idle State = iota
	Syncing
	Error
	Offline
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Syncing:
		return "syncing"
	case Error:
		return "error"
	case Offline:
		return "offline"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrSyncInProgress is returned by PushPull when a cycle is already running.
var ErrSyncInProgress = errors.New("syncengine: sync already in progress")

// pushBatchSize bounds how many pending entries a single push transmits.
const pushBatchSize = 100

// Transport is the engine's dependency on the external REST collaborator.
// Implementations live outside this package (see internal/transport/
// httptransport); tests substitute MockTransport.
type Transport interface {
	Push(ctx context.Context, req protocol.PushRequest) (protocol.PushResponse, error)
	Pull(ctx context.Context, req protocol.PullRequest) (protocol.PullResponse, error)
	FullSync(ctx context.Context, req protocol.FullSyncRequest) (protocol.PullResponse, error)
}

// Engine drives push/pull cycles against a journal.Store and a Transport. A
// single mutex guards both the state field and the per-entity version
// vector table, following the rest of this codebase's single-writer,
// mutex-guarded style.
type Engine struct {
	mu        sync.Mutex
	store     *journal.Store
	transport Transport
	deviceID  uuid.UUID
	state     State
	versions  map[entityKey]clock.VersionVector

	logger  *zap.Logger
	metrics *monitoring.Metrics
}

type entityKey struct {
	entityType string
	entityID   uuid.UUID
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger attaches a zap logger; nil leaves logging disabled.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics attaches a prometheus metrics bundle; nil leaves metrics
// disabled.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// New constructs an Engine bound to store, transport, and deviceID.
func New(store *journal.Store, transport Transport, deviceID uuid.UUID, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		transport: transport,
		deviceID:  deviceID,
		state:     Idle,
		versions:  make(map[entityKey]clock.VersionVector),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) log() *zap.Logger {
	if e.logger != nil {
		return e.logger
	}
	return zap.NewNop()
}

// versionFor returns the running version vector for an entity, incremented
// for this engine's device.
func (e *Engine) versionFor(key entityKey) (clock.VersionVector, error) {
	current := e.versions[key]
	next, err := current.Increment(e.deviceID)
	if err != nil {
		return nil, fmt.Errorf("syncengine: %w: %w", syncerr.ErrIntegrityViolation, err)
	}
	e.versions[key] = next
	return next, nil
}

// TrackCreate journals a Create change for (entityType, entityID).
func (e *Engine) TrackCreate(ctx context.Context, entityType string, entityID uuid.UUID, payload map[string]any) error {
	return e.track(ctx, journal.OpCreate, entityType, entityID, payload)
}

// TrackUpdate journals an Update change for (entityType, entityID).
func (e *Engine) TrackUpdate(ctx context.Context, entityType string, entityID uuid.UUID, payload map[string]any) error {
	return e.track(ctx, journal.OpUpdate, entityType, entityID, payload)
}

// TrackDelete journals a Delete change for (entityType, entityID).
func (e *Engine) TrackDelete(ctx context.Context, entityType string, entityID uuid.UUID) error {
	return e.track(ctx, journal.OpDelete, entityType, entityID, nil)
}

func (e *Engine) track(ctx context.Context, op journal.Operation, entityType string, entityID uuid.UUID, payload map[string]any) error {
	e.mu.Lock()
	key := entityKey{entityType, entityID}
	version, err := e.versionFor(key)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	change := journal.Change{
		ID:           uuid.New(),
		EntityType:   entityType,
		EntityID:     entityID,
		Operation:    op,
		Payload:      payload,
		Timestamp:    time.Now().UnixMilli(),
		OriginDevice: e.deviceID,
		Version:      version,
	}

	start := time.Now()
	err = e.store.Append(ctx, change)
	if e.metrics != nil {
		e.metrics.JournalAppendLength.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("syncengine: track %s: %w: %w", op, syncerr.ErrJournalIO, err)
	}
	if e.metrics != nil {
		e.metrics.ChangesJournaled.Inc()
	}
	e.log().Debug("tracked change",
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID.String()),
		zap.String("operation", string(op)),
	)
	return nil
}

// GetStatus reports the engine's current state, pending count, and device.
func (e *Engine) GetStatus(ctx context.Context) (Status, error) {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	pending, err := e.store.PendingCount(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("syncengine: get_status: %w: %w", syncerr.ErrJournalIO, err)
	}

	lastSync, _, err := e.store.GetMetadata(ctx, "last_sync_time")
	if err != nil {
		return Status{}, fmt.Errorf("syncengine: get_status: %w: %w", syncerr.ErrJournalIO, err)
	}

	return Status{
		State:          state,
		PendingChanges: pending,
		LastSyncTime:   lastSync,
		DeviceID:       e.deviceID,
	}, nil
}

// DeviceID returns this engine's own device identity, independent of
// GetStatus so a caller can still report who they are even when GetStatus
// itself fails.
func (e *Engine) DeviceID() uuid.UUID {
	return e.deviceID
}

// Status is the point-in-time sync status surfaced to callers and /sync/status.
type Status struct {
	State          State
	PendingChanges int64
	LastSyncTime   string
	DeviceID       uuid.UUID
}

// PushPull runs one full replication cycle: push pending changes, then pull
// and apply remote ones. It fails fast with ErrSyncInProgress on re-entry.
func (e *Engine) PushPull(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "syncengine.push_pull", attribute.String("device_id", e.deviceID.String()))
	defer span.End()

	e.mu.Lock()
	if e.state == Syncing {
		e.mu.Unlock()
		return ErrSyncInProgress
	}
	e.state = Syncing
	e.mu.Unlock()
	if e.metrics != nil {
		e.metrics.SyncInProgress.Set(1)
	}

	defer func() {
		if e.metrics != nil {
			e.metrics.SyncInProgress.Set(0)
		}
	}()

	if err := e.push(ctx); err != nil {
		e.finish(errState(err))
		return err
	}
	if err := e.pull(ctx); err != nil {
		e.finish(errState(err))
		return err
	}

	e.finish(Idle)
	return nil
}

func errState(err error) State {
	if errors.Is(err, syncerr.ErrTransport) {
		return Offline
	}
	return Error
}

func (e *Engine) finish(state State) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

// push drains up to pushBatchSize pending entries and transmits them.
func (e *Engine) push(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "syncengine.push")
	defer span.End()

	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.PushDuration.Observe(time.Since(start).Seconds())
		}
	}()

	entries, err := e.store.Pending(ctx, pushBatchSize)
	if err != nil {
		return fmt.Errorf("syncengine: push: %w: %w", syncerr.ErrJournalIO, err)
	}
	if len(entries) == 0 {
		return nil
	}

	changes := make([]journal.Change, len(entries))
	for i, entry := range entries {
		changes[i] = entry.Change
	}

	resp, err := e.transport.Push(ctx, protocol.PushRequest{
		DeviceID:   e.deviceID,
		Changes:    changes,
		ClientTime: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("syncengine: push: %w: %w", syncerr.ErrTransport, err)
	}

	if ctx.Err() != nil {
		return fmt.Errorf("syncengine: push: %w", syncerr.ErrCancelled)
	}

	if len(resp.Acknowledged) > 0 {
		if err := e.store.MarkSynced(ctx, resp.Acknowledged); err != nil {
			return fmt.Errorf("syncengine: push: mark_synced: %w: %w", syncerr.ErrJournalIO, err)
		}
		if e.metrics != nil {
			e.metrics.ChangesPushed.Add(float64(len(resp.Acknowledged)))
		}
	}

	for _, rejected := range resp.Rejected {
		if err := e.store.RecordError(ctx, rejected.ChangeID, rejected.Reason); err != nil {
			return fmt.Errorf("syncengine: push: record_error: %w: %w", syncerr.ErrJournalIO, err)
		}
		e.log().Warn("change rejected",
			zap.String("change_id", rejected.ChangeID.String()),
			zap.String("reason", rejected.Reason),
		)
	}

	return nil
}

// pull requests changes since last_sync_time and applies each one.
func (e *Engine) pull(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "syncengine.pull")
	defer span.End()

	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.PullDuration.Observe(time.Since(start).Seconds())
		}
	}()

	since, _, err := e.store.GetMetadata(ctx, "last_sync_time")
	if err != nil {
		return fmt.Errorf("syncengine: pull: %w: %w", syncerr.ErrJournalIO, err)
	}

	resp, err := e.transport.Pull(ctx, protocol.PullRequest{DeviceID: e.deviceID, Since: since})
	if err != nil {
		return fmt.Errorf("syncengine: pull: %w: %w", syncerr.ErrTransport, err)
	}

	for _, change := range resp.Changes {
		if err := e.applyRemote(ctx, change); err != nil {
			return err
		}
		if e.metrics != nil {
			e.metrics.ChangesPulled.Inc()
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("syncengine: pull: %w", syncerr.ErrCancelled)
	}

	if err := e.store.SetMetadata(ctx, "last_sync_time", resp.ServerTime); err != nil {
		return fmt.Errorf("syncengine: pull: set_metadata: %w: %w", syncerr.ErrJournalIO, err)
	}
	return nil
}

// bootstrapCompleteKey is the sync_metadata flag a fresh device clears
// until FullSync has durably applied every change the collaborator holds.
const bootstrapCompleteKey = "bootstrap_complete"

// FullSync bootstraps a brand-new device with every change the
// collaborator holds for entityTypes (or all types, if empty), instead of
// the incremental since-cursor PushPull otherwise uses. It is idempotent:
// calling it again after bootstrap_complete is already set is a no-op, so
// a caller can invoke it unconditionally on startup.
func (e *Engine) FullSync(ctx context.Context, entityTypes ...string) error {
	ctx, span := tracing.StartSpan(ctx, "syncengine.full_sync", attribute.String("device_id", e.deviceID.String()))
	defer span.End()

	done, _, err := e.store.GetMetadata(ctx, bootstrapCompleteKey)
	if err != nil {
		return fmt.Errorf("syncengine: full_sync: %w: %w", syncerr.ErrJournalIO, err)
	}
	if done == "true" {
		return nil
	}

	resp, err := e.transport.FullSync(ctx, protocol.FullSyncRequest{DeviceID: e.deviceID, EntityTypes: entityTypes})
	if err != nil {
		return fmt.Errorf("syncengine: full_sync: %w: %w", syncerr.ErrTransport, err)
	}

	for _, change := range resp.Changes {
		if err := e.applyRemote(ctx, change); err != nil {
			return err
		}
		if e.metrics != nil {
			e.metrics.ChangesPulled.Inc()
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("syncengine: full_sync: %w", syncerr.ErrCancelled)
	}

	if err := e.store.SetMetadata(ctx, "last_sync_time", resp.ServerTime); err != nil {
		return fmt.Errorf("syncengine: full_sync: set last_sync_time: %w: %w", syncerr.ErrJournalIO, err)
	}
	if err := e.store.SetMetadata(ctx, bootstrapCompleteKey, "true"); err != nil {
		return fmt.Errorf("syncengine: full_sync: set bootstrap_complete: %w: %w", syncerr.ErrJournalIO, err)
	}
	return nil
}

// applyRemote implements the four-step remote-apply algorithm: look up a
// conflicting pending local change, resolve if present, then update the
// entity's running vector. Whatever the decision, the new vector is the
// running vector merged with remote's version when no local change is
// pending, or local's version merged with remote's when one is.
func (e *Engine) applyRemote(ctx context.Context, remote journal.Change) error {
	key := entityKey{remote.EntityType, remote.EntityID}

	local, found, err := e.findPendingLocal(ctx, key)
	if err != nil {
		return fmt.Errorf("syncengine: apply_remote: %w: %w", syncerr.ErrJournalIO, err)
	}

	var merged clock.VersionVector
	if !found {
		shadow := remote
		if err := e.store.Append(ctx, shadow); err != nil {
			return fmt.Errorf("syncengine: apply_remote: %w: %w", syncerr.ErrJournalIO, err)
		}
		if err := e.store.MarkSynced(ctx, []uuid.UUID{shadow.ID}); err != nil {
			return fmt.Errorf("syncengine: apply_remote: %w: %w", syncerr.ErrJournalIO, err)
		}
		// No pending local change for this entity, but a prior synced local
		// change may still have advanced the running vector: merge into it
		// rather than overwriting, so that history isn't discarded.
		e.mu.Lock()
		merged = e.versions[key].Merge(remote.Version)
		e.mu.Unlock()
	} else {
		res := resolver.Resolve(local, remote)
		e.observeDecision(res.Decision)

		switch res.Decision {
		case resolver.KeepLocal:
			// no-op on the store; the local change will push later.
		case resolver.KeepRemote:
			// remote already originated at the collaborator: commit it as
			// already-synced so the next push doesn't echo it straight back.
			if err := e.adoptRemoteChange(ctx, local.ID, remote); err != nil {
				return err
			}
		case resolver.Merge:
			// res.Merged is synthesized here, not something the collaborator
			// already has, so it stays pending and goes out on the next push.
			if err := e.adoptChange(ctx, local.ID, res.Merged); err != nil {
				return err
			}
		case resolver.NeedsManual:
			return fmt.Errorf("syncengine: apply_remote: %w: needs manual resolution for %s/%s",
				syncerr.ErrConflictRejection, remote.EntityType, remote.EntityID)
		}
		merged = local.Version.Merge(remote.Version)
	}

	e.mu.Lock()
	e.versions[key] = merged
	e.mu.Unlock()
	return nil
}

func (e *Engine) observeDecision(d resolver.Decision) {
	if e.metrics == nil {
		return
	}
	switch d {
	case resolver.KeepLocal:
		e.metrics.ConflictsKeepLocal.Inc()
	case resolver.KeepRemote:
		e.metrics.ConflictsKeepRemote.Inc()
	case resolver.Merge:
		e.metrics.ConflictsMerged.Inc()
	case resolver.NeedsManual:
		e.metrics.ConflictsManual.Inc()
	}
}

// adoptChange supersedes the pending local entry superseded with change,
// appended as a fresh (unsynced) journal entry the next push will carry.
func (e *Engine) adoptChange(ctx context.Context, superseded uuid.UUID, change journal.Change) error {
	if err := e.store.Append(ctx, change); err != nil {
		return err
	}
	return e.store.MarkSynced(ctx, []uuid.UUID{superseded})
}

// adoptRemoteChange commits remote as the resolved winner over the
// superseded local change, marking both it and remote itself synced. Unlike
// adoptChange, remote already exists on the collaborator that sent it, so
// leaving it pending would just push it straight back on the next cycle.
func (e *Engine) adoptRemoteChange(ctx context.Context, superseded uuid.UUID, remote journal.Change) error {
	if err := e.store.Append(ctx, remote); err != nil {
		return err
	}
	return e.store.MarkSynced(ctx, []uuid.UUID{superseded, remote.ID})
}

// findAllLimit is large enough to return every pending entry in a single
// Pending call — findPendingLocal needs the full backlog, not a page of it.
const findAllLimit = 1 << 30

// findPendingLocal returns the most recent pending local change matching
// key, if any.
func (e *Engine) findPendingLocal(ctx context.Context, key entityKey) (journal.Change, bool, error) {
	entries, err := e.store.Pending(ctx, findAllLimit)
	if err != nil {
		return journal.Change{}, false, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		c := entries[i].Change
		if c.EntityType == key.entityType && c.EntityID == key.entityID && c.OriginDevice == e.deviceID {
			return c, true, nil
		}
	}
	return journal.Change{}, false, nil
}
