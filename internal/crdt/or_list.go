package crdt

import (
	"sort"

	"github.com/google/uuid"
)

// ListElement is one entry in an OR-List: a value plus the bookkeeping
// needed to merge concurrent edits and removals. Deleted is a tombstone
// rather than an actual removal so that a concurrent remove and update
// converge the same way on every replica.
type ListElement[T any] struct {
	ID        uuid.UUID
	Value     T
	Timestamp int64
	DeviceID  uuid.UUID
	Deleted   bool
}

// ORList is an Observed-Remove List CRDT used for small patient collections
// such as allergies or medications, where every device needs to see the same
// final set regardless of the order updates arrive in.
type ORList[T any] struct {
	elements map[uuid.UUID]ListElement[T]
}

// NewORList creates an empty list.
func NewORList[T any]() *ORList[T] {
	return &ORList[T]{elements: make(map[uuid.UUID]ListElement[T])}
}

// Add inserts value as a new element and returns its ID.
func (l *ORList[T]) Add(id uuid.UUID, value T, timestamp int64, deviceID uuid.UUID) uuid.UUID {
	if l.elements == nil {
		l.elements = make(map[uuid.UUID]ListElement[T])
	}
	l.elements[id] = ListElement[T]{
		ID:        id,
		Value:     value,
		Timestamp: timestamp,
		DeviceID:  deviceID,
	}
	return id
}

// Remove soft-deletes the element with id. Returns false if id is unknown or
// already deleted.
func (l *ORList[T]) Remove(id uuid.UUID, timestamp int64, deviceID uuid.UUID) bool {
	elem, ok := l.elements[id]
	if !ok || elem.Deleted {
		return false
	}
	elem.Deleted = true
	elem.Timestamp = timestamp
	elem.DeviceID = deviceID
	l.elements[id] = elem
	return true
}

// Update replaces the value of a non-deleted element. Returns false if id is
// unknown or deleted.
func (l *ORList[T]) Update(id uuid.UUID, value T, timestamp int64, deviceID uuid.UUID) bool {
	elem, ok := l.elements[id]
	if !ok || elem.Deleted {
		return false
	}
	elem.Value = value
	elem.Timestamp = timestamp
	elem.DeviceID = deviceID
	l.elements[id] = elem
	return true
}

// Merge folds other into l. An element present on both sides resolves by
// last-write-wins on timestamp, tie-broken by device ID; an element present
// only on other is adopted as-is.
func (l *ORList[T]) Merge(other *ORList[T]) {
	if l.elements == nil {
		l.elements = make(map[uuid.UUID]ListElement[T])
	}
	for id, otherElem := range other.elements {
		selfElem, ok := l.elements[id]
		if !ok {
			l.elements[id] = otherElem
			continue
		}
		if elementWins(otherElem, selfElem) {
			l.elements[id] = otherElem
		}
	}
}

func elementWins[T any](candidate, incumbent ListElement[T]) bool {
	if candidate.Timestamp != incumbent.Timestamp {
		return candidate.Timestamp > incumbent.Timestamp
	}
	return candidate.DeviceID.String() > incumbent.DeviceID.String()
}

// GetActive returns every non-deleted element, ordered by (timestamp,
// device_id) of its latest live write so the result is deterministic across
// replicas regardless of Go map iteration order.
func (l *ORList[T]) GetActive() []ListElement[T] {
	out := make([]ListElement[T], 0, len(l.elements))
	for _, e := range l.elements {
		if !e.Deleted {
			out = append(out, e)
		}
	}
	sortElements(out)
	return out
}

// GetAll returns every element, including tombstones, in the same
// (timestamp, device_id) order as GetActive.
func (l *ORList[T]) GetAll() []ListElement[T] {
	out := make([]ListElement[T], 0, len(l.elements))
	for _, e := range l.elements {
		out = append(out, e)
	}
	sortElements(out)
	return out
}

func sortElements[T any](elements []ListElement[T]) {
	sort.Slice(elements, func(i, j int) bool {
		if elements[i].Timestamp != elements[j].Timestamp {
			return elements[i].Timestamp < elements[j].Timestamp
		}
		return elements[i].DeviceID.String() < elements[j].DeviceID.String()
	})
}

// Get returns the element with id, if any.
func (l *ORList[T]) Get(id uuid.UUID) (ListElement[T], bool) {
	e, ok := l.elements[id]
	return e, ok
}

// Len returns the number of non-deleted elements.
func (l *ORList[T]) Len() int {
	n := 0
	for _, e := range l.elements {
		if !e.Deleted {
			n++
		}
	}
	return n
}

// IsEmpty reports whether Len is zero.
func (l *ORList[T]) IsEmpty() bool {
	return l.Len() == 0
}
