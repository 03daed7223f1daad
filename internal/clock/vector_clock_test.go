package clock

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newID() uuid.UUID { return uuid.New() }

func TestIncrement(t *testing.T) {
	a := newID()
	v := New()

	v1, err := v.Increment(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v1.Get(a))

	v2, err := v1.Increment(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v2.Get(a))
	assert.Equal(t, uint64(1), v1.Get(a), "Increment must not mutate the receiver")
}

func TestIncrementOtherComponentsUnchanged(t *testing.T) {
	a, b := newID(), newID()
	v := VersionVector{a: 1, b: 5}

	next, err := v.Increment(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.Get(a))
	assert.Equal(t, uint64(5), next.Get(b), "b should be unchanged")
}

func TestIncrementOverflow(t *testing.T) {
	a := newID()
	v := VersionVector{a: math.MaxUint64}
	_, err := v.Increment(a)
	assert.ErrorIs(t, err, ErrCounterOverflow)
}

func TestGetAbsentIsZero(t *testing.T) {
	v := New()
	assert.Equal(t, uint64(0), v.Get(newID()), "absent device should read as 0")
}

func TestMerge(t *testing.T) {
	a, b, c := newID(), newID(), newID()
	v1 := VersionVector{a: 1, b: 2}
	v2 := VersionVector{a: 3, c: 4}

	merged := v1.Merge(v2)
	assert.Equal(t, uint64(3), merged.Get(a))
	assert.Equal(t, uint64(2), merged.Get(b))
	assert.Equal(t, uint64(4), merged.Get(c))
}

func TestMergeCommutativeAssociativeIdempotent(t *testing.T) {
	a, b, c := newID(), newID(), newID()
	v1 := VersionVector{a: 2, b: 1}
	v2 := VersionVector{b: 3, c: 5}
	v3 := VersionVector{a: 1, c: 7}

	assert.True(t, v1.Merge(v2).Equals(v2.Merge(v1)), "merge should be commutative")

	left := v1.Merge(v2).Merge(v3)
	right := v1.Merge(v2.Merge(v3))
	assert.True(t, left.Equals(right), "merge should be associative")

	assert.True(t, v1.Merge(v1).Equals(v1), "merge should be idempotent")
}

func TestCompare(t *testing.T) {
	a, b := newID(), newID()
	v1 := VersionVector{a: 1, b: 2}
	v2 := VersionVector{a: 1, b: 2}
	assert.Equal(t, Equal, v1.Compare(v2))

	v3 := VersionVector{a: 2, b: 2}
	assert.Equal(t, Before, v1.Compare(v3))

	v4 := VersionVector{a: 0, b: 2}
	assert.Equal(t, After, v1.Compare(v4))

	v5 := VersionVector{a: 2, b: 1}
	assert.Equal(t, Concurrent, v1.Compare(v5))
}

func TestCompareEmptyVsEmptyIsEqual(t *testing.T) {
	assert.Equal(t, Equal, New().Compare(New()))
}

func TestCompareEmptyVsNonzeroIsBefore(t *testing.T) {
	a := newID()
	nonzero := VersionVector{a: 1}
	assert.Equal(t, Before, New().Compare(nonzero), "empty should happen-before a nonzero vector")
}

func TestHappensBeforeExcludesEqual(t *testing.T) {
	a := newID()
	v1 := VersionVector{a: 1}
	v2 := VersionVector{a: 1}
	assert.False(t, v1.HappensBefore(v2), "equal vectors do not happen-before each other")
	assert.True(t, v1.Equals(v2))
}

func TestExactlyOneRelationHolds(t *testing.T) {
	a, b := newID(), newID()
	pairs := []struct{ x, y VersionVector }{
		{VersionVector{a: 1}, VersionVector{a: 1}},
		{VersionVector{a: 1}, VersionVector{a: 2}},
		{VersionVector{a: 2}, VersionVector{a: 1}},
		{VersionVector{a: 1, b: 0}, VersionVector{a: 0, b: 1}},
	}
	for _, p := range pairs {
		equal := p.x.Equals(p.y)
		before := p.x.HappensBefore(p.y)
		after := p.y.HappensBefore(p.x)
		concurrent := p.x.IsConcurrent(p.y)

		count := 0
		for _, b := range []bool{equal, before, after, concurrent} {
			if b {
				count++
			}
		}
		assert.Equal(t, 1, count, "expected exactly one relation for %v vs %v", p.x, p.y)
	}
}

func TestClone(t *testing.T) {
	a, b := newID(), newID()
	v := VersionVector{a: 1, b: 2}
	cloned := v.Clone()
	assert.Equal(t, uint64(1), cloned.Get(a))
	assert.Equal(t, uint64(2), cloned.Get(b))

	cloned[a] = 99
	assert.Equal(t, uint64(1), v.Get(a), "clone should be independent of the original")
}

func TestCloneNil(t *testing.T) {
	var v VersionVector
	assert.Nil(t, v.Clone())
}
