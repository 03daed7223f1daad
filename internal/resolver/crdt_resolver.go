// Package resolver implements the pure conflict-resolution decision table:
// given a local and a remote Change on the same entity, decide which wins,
// or whether they merge.
package resolver

import (
	"fmt"

	"github.com/clinisync/core/internal/journal"
	"github.com/google/uuid"
)

// Decision names which side of a resolve call wins.
type Decision int

const (
	KeepLocal Decision = iota
	KeepRemote
	Merge
	NeedsManual
)

func (d Decision) String() string {
	switch d {
	case KeepLocal:
		return "keep_local"
	case KeepRemote:
		return "keep_remote"
	case Merge:
		return "merge"
	case NeedsManual:
		return "needs_manual"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Resolution is the outcome of Resolve: Decision plus, for Merge, the
// synthesized Change to apply.
type Resolution struct {
	Decision Decision
	Merged   journal.Change
}

// mergedDeviceNamespace is an arbitrary fixed UUID used only to derive the
// reserved "<device>_merged" sentinel deterministically from the local
// device, since OriginDevice is a uuid.UUID and cannot literally carry a
// string suffix.
var mergedDeviceNamespace = uuid.MustParse("6f0a6e6c-9c7b-4eac-9f0a-5d6c6e6d6f61")

// mergedDeviceID derives the sentinel device ID recorded on a Merge
// resolution's origin_device. It is a provenance label, not a causal
// participant: Resolve never increments a version vector counter for it.
func mergedDeviceID(local uuid.UUID) uuid.UUID {
	return uuid.NewSHA1(mergedDeviceNamespace, local[:])
}

// Resolve applies the decision table in spec order. local and remote must
// refer to the same (entity_type, entity_id); Resolve does not check this.
func Resolve(local, remote journal.Change) Resolution {
	switch {
	case local.Operation == journal.OpDelete:
		return Resolution{Decision: KeepLocal}
	case remote.Operation == journal.OpDelete:
		return Resolution{Decision: KeepRemote}
	}

	switch {
	case local.Operation == journal.OpCreate && remote.Operation == journal.OpCreate:
		if local.Timestamp >= remote.Timestamp {
			return Resolution{Decision: KeepLocal}
		}
		return Resolution{Decision: KeepRemote}
	case local.Operation == journal.OpUpdate && remote.Operation == journal.OpUpdate:
		return mergeUpdates(local, remote)
	case local.Operation == journal.OpCreate && remote.Operation == journal.OpUpdate:
		return Resolution{Decision: KeepRemote}
	case local.Operation == journal.OpUpdate && remote.Operation == journal.OpCreate:
		return Resolution{Decision: KeepLocal}
	}

	return Resolution{Decision: NeedsManual}
}

// mergeUpdates implements the Update/Update merge rule: disjoint top-level
// payload keys merge field-by-field; any overlap falls back to
// last-write-wins, tie-broken by origin_device.
func mergeUpdates(local, remote journal.Change) Resolution {
	for key := range remote.Payload {
		if _, overlap := local.Payload[key]; overlap {
			return lastWriteWins(local, remote)
		}
	}

	merged := make(map[string]any, len(local.Payload)+len(remote.Payload))
	for k, v := range local.Payload {
		merged[k] = v
	}
	for k, v := range remote.Payload {
		merged[k] = v
	}

	timestamp := local.Timestamp
	if remote.Timestamp > timestamp {
		timestamp = remote.Timestamp
	}

	return Resolution{
		Decision: Merge,
		Merged: journal.Change{
			ID:           uuid.New(),
			EntityType:   local.EntityType,
			EntityID:     local.EntityID,
			Operation:    journal.OpUpdate,
			Payload:      merged,
			Timestamp:    timestamp,
			OriginDevice: mergedDeviceID(local.OriginDevice),
			Version:      local.Version.Merge(remote.Version),
		},
	}
}

func lastWriteWins(local, remote journal.Change) Resolution {
	if local.Timestamp > remote.Timestamp {
		return Resolution{Decision: KeepLocal}
	}
	if remote.Timestamp > local.Timestamp {
		return Resolution{Decision: KeepRemote}
	}
	if local.OriginDevice.String() >= remote.OriginDevice.String() {
		return Resolution{Decision: KeepLocal}
	}
	return Resolution{Decision: KeepRemote}
}
