package crdt

import "github.com/google/uuid"

// VersionedValue is one candidate value in an MVRegister, tagged with the
// timestamp and device that wrote it.
type VersionedValue[T comparable] struct {
	Value     T
	Timestamp int64
	DeviceID  uuid.UUID
}

// MVRegister is a Multi-Value register: concurrent writes from different
// devices are all retained until a merge resolves them, rather than one
// silently overwriting the other. A merge keeps only the values carrying the
// maximum timestamp seen across both sides, so a genuinely concurrent pair of
// writes (equal timestamps, different devices) surfaces as a conflict the
// caller must look at instead of one being silently dropped.
type MVRegister[T comparable] struct {
	values map[VersionedValue[T]]struct{}
}

// NewMVRegister creates a register holding a single value.
func NewMVRegister[T comparable](value T, timestamp int64, deviceID uuid.UUID) MVRegister[T] {
	r := EmptyMVRegister[T]()
	r.Set(value, timestamp, deviceID)
	return r
}

// EmptyMVRegister creates a register with no values.
func EmptyMVRegister[T comparable]() MVRegister[T] {
	return MVRegister[T]{values: make(map[VersionedValue[T]]struct{})}
}

// Set discards all prior values and replaces them with a single new one.
func (r *MVRegister[T]) Set(value T, timestamp int64, deviceID uuid.UUID) {
	if r.values == nil {
		r.values = make(map[VersionedValue[T]]struct{})
	}
	for k := range r.values {
		delete(r.values, k)
	}
	r.values[VersionedValue[T]{Value: value, Timestamp: timestamp, DeviceID: deviceID}] = struct{}{}
}

// Merge folds other into r, keeping only the values with the maximum
// timestamp across both registers.
func (r *MVRegister[T]) Merge(other MVRegister[T]) {
	var maxTS int64
	first := true
	for v := range r.values {
		if first || v.Timestamp > maxTS {
			maxTS = v.Timestamp
			first = false
		}
	}
	for v := range other.values {
		if first || v.Timestamp > maxTS {
			maxTS = v.Timestamp
			first = false
		}
	}
	if first {
		return
	}

	merged := make(map[VersionedValue[T]]struct{})
	for v := range r.values {
		if v.Timestamp == maxTS {
			merged[v] = struct{}{}
		}
	}
	for v := range other.values {
		if v.Timestamp == maxTS {
			merged[v] = struct{}{}
		}
	}
	r.values = merged
}

// Merged returns the result of merging r with other without mutating either.
func (r MVRegister[T]) Merged(other MVRegister[T]) MVRegister[T] {
	r.Merge(other)
	return r
}

// GetAll returns every surviving concurrent value.
func (r MVRegister[T]) GetAll() []T {
	out := make([]T, 0, len(r.values))
	for v := range r.values {
		out = append(out, v.Value)
	}
	return out
}

// HasConflict reports whether more than one value survived the last merge.
func (r MVRegister[T]) HasConflict() bool {
	return len(r.values) > 1
}

// GetSingle returns the register's value when exactly one survives, or None
// when the register is empty or still conflicted.
func (r MVRegister[T]) GetSingle() Option[T] {
	if len(r.values) != 1 {
		return None[T]()
	}
	for v := range r.values {
		return Some(v.Value)
	}
	return None[T]()
}
