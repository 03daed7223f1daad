package crdt

import "github.com/google/uuid"

// mapEntry is one key's last-write-wins state inside an LWWMap. A tombstoned
// delete keeps Option.Valid false so a later concurrent write from a replica
// that never saw the delete still resolves deterministically on merge.
type mapEntry[V any] struct {
	value     Option[V]
	timestamp int64
	deviceID  uuid.UUID
}

func (e mapEntry[V]) wins(other mapEntry[V]) bool {
	if e.timestamp != other.timestamp {
		return e.timestamp > other.timestamp
	}
	return e.deviceID.String() >= other.deviceID.String()
}

// LWWMap is a field-level last-write-wins map: every key merges
// independently, so a concurrent update to one field and a delete of another
// both survive a merge instead of one document clobbering the other
// wholesale. This is the generalized form of the per-field payload merge a
// document-level resolver otherwise has to hand-roll.
type LWWMap[K comparable, V any] struct {
	entries map[K]mapEntry[V]
}

// NewLWWMap creates an empty map.
func NewLWWMap[K comparable, V any]() *LWWMap[K, V] {
	return &LWWMap[K, V]{entries: make(map[K]mapEntry[V])}
}

// Set writes a value for key, stamped with timestamp and deviceID.
func (m *LWWMap[K, V]) Set(key K, value V, timestamp int64, deviceID uuid.UUID) {
	m.write(key, Some(value), timestamp, deviceID)
}

// Delete tombstones key. It is still visible to Merge (so a racing concurrent
// set from another device is compared against it) but Get will report it as
// absent.
func (m *LWWMap[K, V]) Delete(key K, timestamp int64, deviceID uuid.UUID) {
	m.write(key, None[V](), timestamp, deviceID)
}

func (m *LWWMap[K, V]) write(key K, value Option[V], timestamp int64, deviceID uuid.UUID) {
	if m.entries == nil {
		m.entries = make(map[K]mapEntry[V])
	}
	m.entries[key] = mapEntry[V]{value: value, timestamp: timestamp, deviceID: deviceID}
}

// Get returns the live value for key, or None if it was never set or has
// been deleted.
func (m *LWWMap[K, V]) Get(key K) Option[V] {
	entry, ok := m.entries[key]
	if !ok {
		return None[V]()
	}
	return entry.value
}

// Keys returns the keys that currently hold a live (non-tombstoned) value.
func (m *LWWMap[K, V]) Keys() []K {
	keys := make([]K, 0, len(m.entries))
	for k, e := range m.entries {
		if e.value.Valid {
			keys = append(keys, k)
		}
	}
	return keys
}

// Merge folds other into m one key at a time: keys present only on one side
// are adopted as-is, keys present on both resolve by last-write-wins with a
// device-ID tiebreak on equal timestamps.
func (m *LWWMap[K, V]) Merge(other *LWWMap[K, V]) {
	if m.entries == nil {
		m.entries = make(map[K]mapEntry[V])
	}
	for k, otherEntry := range other.entries {
		selfEntry, ok := m.entries[k]
		if !ok || otherEntry.wins(selfEntry) {
			m.entries[k] = otherEntry
		}
	}
}
