// Package clock implements the version vector used for causality tracking
// across devices: per-device logical counters that determine whether one
// change happens-before another, or whether the two are concurrent.
package clock

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// VersionVector maps a device ID to its logical counter. A missing key is
// equivalent to a counter of zero.
type VersionVector map[uuid.UUID]uint64

// Relation is the causal relationship between two version vectors.
type Relation int

const (
	Equal Relation = iota
	Before
	After
	Concurrent
)

// ErrCounterOverflow is returned by Increment when a device's counter is
// already at its maximum value; this is a fatal invariant violation for the
// workload, not a condition callers should retry past.
var ErrCounterOverflow = fmt.Errorf("version vector: counter overflow")

// New returns an empty version vector.
func New() VersionVector { return make(VersionVector) }

// Get returns deviceID's counter, or 0 if absent.
func (v VersionVector) Get(deviceID uuid.UUID) uint64 {
	return v[deviceID]
}

// Increment raises deviceID's counter by one and returns the resulting
// vector. It never mutates v in place relative to other holders of the same
// underlying map; callers that need in-place semantics should reassign the
// result, mirroring the copy-on-write style of Merge and Clone below.
func (v VersionVector) Increment(deviceID uuid.UUID) (VersionVector, error) {
	next := v.Clone()
	if next == nil {
		next = New()
	}
	if next[deviceID] == math.MaxUint64 {
		return nil, ErrCounterOverflow
	}
	next[deviceID]++
	return next, nil
}

// Merge returns the componentwise maximum of v and other. Commutative and
// idempotent: Merge(a,b) == Merge(b,a) and Merge(a,a) == a.
func (v VersionVector) Merge(other VersionVector) VersionVector {
	merged := make(VersionVector, len(v)+len(other))
	for id, c := range v {
		merged[id] = c
	}
	for id, c := range other {
		if existing, ok := merged[id]; !ok || c > existing {
			merged[id] = c
		}
	}
	return merged
}

// Compare returns the causal relationship of v to other.
func (v VersionVector) Compare(other VersionVector) Relation {
	greater, less := false, false

	seen := make(map[uuid.UUID]struct{}, len(v)+len(other))
	for id := range v {
		seen[id] = struct{}{}
	}
	for id := range other {
		seen[id] = struct{}{}
	}

	for id := range seen {
		a, b := v[id], other[id]
		switch {
		case a > b:
			greater = true
		case a < b:
			less = true
		}
	}

	switch {
	case !greater && !less:
		return Equal
	case less && !greater:
		return Before
	case greater && !less:
		return After
	default:
		return Concurrent
	}
}

// HappensBefore reports whether v strictly causally precedes other: every
// counter in v is <= the corresponding counter in other, and at least one is
// strictly less. Equal vectors do not happen-before each other.
func (v VersionVector) HappensBefore(other VersionVector) bool {
	return v.Compare(other) == Before
}

// IsConcurrent reports whether v and other are causally unordered: neither
// happens-before the other, and they are not equal.
func (v VersionVector) IsConcurrent(other VersionVector) bool {
	return v.Compare(other) == Concurrent
}

// Equals reports whether v and other carry identical counters.
func (v VersionVector) Equals(other VersionVector) bool {
	return v.Compare(other) == Equal
}

// Clone returns an independent copy of v.
func (v VersionVector) Clone() VersionVector {
	if v == nil {
		return nil
	}
	c := make(VersionVector, len(v))
	for id, counter := range v {
		c[id] = counter
	}
	return c
}
