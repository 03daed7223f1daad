package crdt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestORListAdd(t *testing.T) {
	d := uuidFor(1)
	l := NewORList[string]()
	id := l.Add(uuid.New(), "item1", 100, d)

	assert.Equal(t, 1, l.Len())
	elem, ok := l.Get(id)
	require.True(t, ok)
	assert.Equal(t, "item1", elem.Value)
}

func TestORListRemoveIsTombstone(t *testing.T) {
	d := uuidFor(1)
	l := NewORList[string]()
	id := l.Add(uuid.New(), "item1", 100, d)

	require.True(t, l.Remove(id, 200, d), "expected first remove to succeed")
	assert.Equal(t, 0, l.Len())

	elem, ok := l.Get(id)
	require.True(t, ok, "removed element should remain retrievable as a tombstone")
	assert.True(t, elem.Deleted)

	assert.False(t, l.Remove(id, 300, d), "removing an already-deleted element should report false")
}

func TestORListUpdate(t *testing.T) {
	d := uuidFor(1)
	l := NewORList[string]()
	id := l.Add(uuid.New(), "item1", 100, d)
	require.True(t, l.Update(id, "item1_updated", 200, d))

	elem, _ := l.Get(id)
	assert.Equal(t, "item1_updated", elem.Value)
}

func TestORListUpdateDeletedFails(t *testing.T) {
	d := uuidFor(1)
	l := NewORList[string]()
	id := l.Add(uuid.New(), "item1", 100, d)
	l.Remove(id, 200, d)
	assert.False(t, l.Update(id, "nope", 300, d), "updating a deleted element should fail")
}

func TestORListMergeUnion(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	l1 := NewORList[string]()
	id1 := l1.Add(uuid.New(), "item1", 100, d1)

	l2 := NewORList[string]()
	id2 := l2.Add(uuid.New(), "item2", 100, d2)

	l1.Merge(l2)

	assert.Equal(t, 2, l1.Len())
	_, ok := l1.Get(id1)
	assert.True(t, ok, "original element should survive")
	_, ok = l1.Get(id2)
	assert.True(t, ok, "merged-in element should be present")
}

func TestORListMergeConflictNewerWins(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	shared := uuid.New()

	l1 := NewORList[string]()
	l1.Add(shared, "value1", 100, d1)

	l2 := NewORList[string]()
	l2.Add(shared, "value2", 200, d2)

	l1.Merge(l2)

	elem, _ := l1.Get(shared)
	assert.Equal(t, "value2", elem.Value, "later write should win")
}

func TestORListGetActiveOrdersByTimestampThenDeviceID(t *testing.T) {
	dLow, dHigh := uuidFor(1), uuidFor(2)
	l := NewORList[string]()

	idLater := l.Add(uuid.New(), "later", 200, dLow)
	idTieLow := l.Add(uuid.New(), "tie-low-device", 100, dLow)
	idTieHigh := l.Add(uuid.New(), "tie-high-device", 100, dHigh)

	active := l.GetActive()
	require.Len(t, active, 3)
	assert.Equal(t, idTieLow, active[0].ID, "equal timestamps tie-break on device ID ascending")
	assert.Equal(t, idTieHigh, active[1].ID)
	assert.Equal(t, idLater, active[2].ID, "later timestamp sorts last")
}

func TestORListGetAllIncludesTombstonesInTheSameOrder(t *testing.T) {
	d := uuidFor(1)
	l := NewORList[string]()

	id1 := l.Add(uuid.New(), "first", 100, d)
	id2 := l.Add(uuid.New(), "second", 200, d)
	l.Remove(id2, 300, d)

	all := l.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, id1, all[0].ID)
	assert.Equal(t, id2, all[1].ID)
	assert.True(t, all[1].Deleted)
}

func TestORListMergeRemoveWinsOverConcurrentUpdate(t *testing.T) {
	d1, d2 := uuidFor(1), uuidFor(2)
	shared := uuid.New()

	l1 := NewORList[string]()
	l1.Add(shared, "value1", 100, d1)
	l1.Remove(shared, 300, d1)

	l2 := NewORList[string]()
	l2.Add(shared, "value2", 200, d2)

	l1.Merge(l2)

	elem, _ := l1.Get(shared)
	assert.True(t, elem.Deleted, "the later remove should win over the earlier concurrent update")
}
