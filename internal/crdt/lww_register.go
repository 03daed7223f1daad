package crdt

import "github.com/google/uuid"

// LWWRegister is a Last-Write-Wins register over a scalar value. Ties on
// timestamp are broken by comparing device IDs lexicographically; the higher
// device ID wins, which keeps merge deterministic regardless of argument
// order.
type LWWRegister[T any] struct {
	Value     T
	Timestamp int64
	DeviceID  uuid.UUID
}

// NewLWWRegister builds a register holding value, stamped with timestamp and
// deviceID.
func NewLWWRegister[T any](value T, timestamp int64, deviceID uuid.UUID) LWWRegister[T] {
	return LWWRegister[T]{Value: value, Timestamp: timestamp, DeviceID: deviceID}
}

// Set replaces the register's value in place.
func (r *LWWRegister[T]) Set(value T, timestamp int64, deviceID uuid.UUID) {
	r.Value = value
	r.Timestamp = timestamp
	r.DeviceID = deviceID
}

// Merge folds other into r, keeping whichever of the two wins under
// last-write-wins-with-device-tiebreak. Merge is commutative, associative,
// and idempotent.
func (r *LWWRegister[T]) Merge(other LWWRegister[T]) {
	if r.wins(other) {
		return
	}
	r.Value = other.Value
	r.Timestamp = other.Timestamp
	r.DeviceID = other.DeviceID
}

// Merged returns the result of merging r with other without mutating either.
func (r LWWRegister[T]) Merged(other LWWRegister[T]) LWWRegister[T] {
	r.Merge(other)
	return r
}

// wins reports whether r should be kept over other.
func (r LWWRegister[T]) wins(other LWWRegister[T]) bool {
	if r.Timestamp != other.Timestamp {
		return r.Timestamp > other.Timestamp
	}
	return deviceGreaterOrEqual(r.DeviceID, other.DeviceID)
}

func deviceGreaterOrEqual(a, b uuid.UUID) bool {
	return a.String() >= b.String()
}
