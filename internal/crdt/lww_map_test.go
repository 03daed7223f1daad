package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLWWMapSetAndGet(t *testing.T) {
	d := uuidFor(1)
	m := NewLWWMap[string, string]()
	m.Set("name", "Alice", 100, d)

	v, ok := m.Get("name").Get()
	require.True(t, ok)
	assert.Equal(t, "Alice", v)
}

func TestLWWMapDeleteHidesValue(t *testing.T) {
	d := uuidFor(1)
	m := NewLWWMap[string, string]()
	m.Set("name", "Alice", 100, d)
	m.Delete("name", 200, d)

	_, ok := m.Get("name").Get()
	assert.False(t, ok, "deleted key should read as absent")
	assert.Empty(t, m.Keys(), "expected no live keys")
}

func TestLWWMapMergeIndependentKeys(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	m1 := NewLWWMap[string, string]()
	m1.Set("name", "Alice", 100, d1)

	m2 := NewLWWMap[string, string]()
	m2.Set("phone", "555-0100", 100, d2)

	m1.Merge(m2)

	name, _ := m1.Get("name").Get()
	phone, _ := m1.Get("phone").Get()
	assert.Equal(t, "Alice", name)
	assert.Equal(t, "555-0100", phone)
}

func TestLWWMapMergeUpdateAndDeleteOnDifferentFieldsBothSurvive(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	m1 := NewLWWMap[string, string]()
	m1.Set("name", "Alice", 100, d1)
	m1.Set("phone", "555-0100", 100, d1)
	m1.Delete("phone", 200, d1)

	m2 := NewLWWMap[string, string]()
	m2.Set("name", "Alice Smith", 300, d2)

	m1.Merge(m2)

	name, ok := m1.Get("name").Get()
	require.True(t, ok)
	assert.Equal(t, "Alice Smith", name, "newer name should win")

	_, ok = m1.Get("phone").Get()
	assert.False(t, ok, "phone delete should survive a merge that never touched phone")
}

func TestLWWMapMergeSameFieldLWW(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	m1 := NewLWWMap[string, string]()
	m1.Set("phone", "555-0100", 100, d1)

	m2 := NewLWWMap[string, string]()
	m2.Set("phone", "555-0200", 200, d2)

	m1.Merge(m2)

	phone, _ := m1.Get("phone").Get()
	assert.Equal(t, "555-0200", phone, "later write should win on shared field")
}

func TestLWWMapMergeIdempotent(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	m1 := NewLWWMap[string, int]()
	m1.Set("count", 1, 100, d1)

	m2 := NewLWWMap[string, int]()
	m2.Set("count", 2, 200, d2)

	m1.Merge(m2)
	before, _ := m1.Get("count").Get()
	m1.Merge(m2)
	after, _ := m1.Get("count").Get()
	assert.Equal(t, before, after, "merging the same map twice should not change the result")
}
