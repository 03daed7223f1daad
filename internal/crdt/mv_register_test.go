package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMVRegisterSingleValueNoConflict(t *testing.T) {
	d := uuidFor(1)
	r := NewMVRegister("initial", 100, d)

	v, ok := r.GetSingle().Get()
	assert.True(t, ok)
	assert.Equal(t, "initial", v)
	assert.False(t, r.HasConflict(), "fresh register should not report a conflict")
}

func TestMVRegisterSetReplacesValue(t *testing.T) {
	d := uuidFor(1)
	r := NewMVRegister("initial", 100, d)
	r.Set("updated", 200, d)

	v, ok := r.GetSingle().Get()
	assert.True(t, ok)
	assert.Equal(t, "updated", v)
}

func TestMVRegisterConcurrentWritesSurfaceBoth(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	r1 := NewMVRegister("value1", 100, d1)
	r2 := NewMVRegister("value2", 100, d2)

	r1.Merge(r2)

	assert.True(t, r1.HasConflict(), "equal-timestamp concurrent writes should report a conflict")
	assert.Len(t, r1.GetAll(), 2, "both values should survive")

	_, ok := r1.GetSingle().Get()
	assert.False(t, ok, "GetSingle should report absent when conflicted")
}

func TestMVRegisterMergeKeepsOnlyLatestTimestamp(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	r1 := NewMVRegister("value1", 100, d1)
	r2 := NewMVRegister("value2", 200, d2)

	r1.Merge(r2)

	assert.False(t, r1.HasConflict(), "a strictly later write should not leave a conflict behind")
	v, ok := r1.GetSingle().Get()
	assert.True(t, ok)
	assert.Equal(t, "value2", v)
}

func TestMVRegisterMergeIdempotent(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	r1 := NewMVRegister("value1", 100, d1)
	r2 := NewMVRegister("value2", 100, d2)
	r1.Merge(r2)

	before := len(r1.GetAll())
	r1.Merge(r2)
	assert.Len(t, r1.GetAll(), before, "merging the same register again should not change the result")
}
