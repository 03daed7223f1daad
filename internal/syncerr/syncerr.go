// Package syncerr names the error taxonomy shared across the sync pipeline:
// the sync engine wraps journal, transport and conflict failures into one of
// these sentinels so callers can dispatch recovery with errors.Is/errors.As
// instead of string matching.
package syncerr

import "errors"

var (
	// ErrTransport marks a network-reachability or timeout failure talking
	// to the remote collaborator. Recovery: enter Offline, retain the
	// journal, retry on the next sync cycle.
	ErrTransport = errors.New("syncerr: transport failure")

	// ErrConflictRejection marks a change the server rejected outright
	// (e.g. a stale parent). Recovery: record_error, increment retry,
	// surface after the retry cap.
	ErrConflictRejection = errors.New("syncerr: conflict rejection")

	// ErrDecryption marks a field decryption failure on a single read.
	// Recovery: return a sentinel value, log, continue — one corrupt row
	// must not fail an entire list query.
	ErrDecryption = errors.New("syncerr: decryption failure")

	// ErrJournalIO marks a persistence error against the change journal.
	// Recovery: fatal to the current session; the sync engine enters
	// Error state.
	ErrJournalIO = errors.New("syncerr: journal io failure")

	// ErrIntegrityViolation marks a condition that must never be silently
	// dropped: version vector counter saturation, or a blob shorter than
	// nonce+tag. Recovery: abort the operation, surface to the caller.
	ErrIntegrityViolation = errors.New("syncerr: integrity violation")

	// ErrCancelled marks a cooperative context cancellation. Recovery is
	// a no-op by design: nothing is undone, and sync metadata does not
	// advance.
	ErrCancelled = errors.New("syncerr: cancelled")
)

// RetryCap is the number of record_error attempts after which a rejected
// change counts as needing manual intervention. No code in this module
// reads it: push retransmits a rejected change on every cycle whatever its
// retry count, and nothing surfaces it separately.
const RetryCap = 10
