package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkart/rlink-go/pkg/element"
)

func keyRecord(v int64) *element.Record {
	r := element.NewRecord(element.Schema{element.ColumnTypeString})
	w := r.NewWriter()
	_ = w.SetString(string(rune('A' + v)))
	return r
}

func valueRecord(v int64) *element.Record {
	r := element.NewRecord(element.Schema{element.ColumnTypeInt64})
	w := r.NewWriter()
	_ = w.SetInt64(v)
	return r
}

// TestDropAndDrain creates state for Key(chain=1, task=0,
// window=[2,5)), inserts {A->1, B->2}, removes via drop-window, and
// checks the detached state's entries are exactly those two pairs, with
// a second drop returning nothing.
func TestDropAndDrain(t *testing.T) {
	reg := NewRegistry()
	key := Key{ChainID: 1, TaskNumber: 0, Window: Window{Start: 2, End: 5, Kind: WindowTumbling}}

	s := reg.GetOrCreateState(key, 0)
	s.Insert(keyRecord(0), valueRecord(1))
	s.Insert(keyRecord(1), valueRecord(2))

	dropped, ok := reg.RemoveDropWindow(key)
	require.True(t, ok)

	entries := dropped.Entries()
	require.Len(t, entries, 2)

	got := map[string]int64{}
	for _, e := range entries {
		k, err := e.Key.NewReader().GetString(0)
		require.NoError(t, err)
		v, err := e.Value.NewReader().GetInt64(0)
		require.NoError(t, err)
		got[k] = v
	}
	assert.Equal(t, map[string]int64{"A": 1, "B": 2}, got)

	// Removal is single-shot; a second drop of the same key finds
	// nothing (the window is gone from the live registry).
	_, ok = reg.RemoveDropWindow(key)
	assert.False(t, ok)

	_, ok = reg.GetState(key)
	assert.False(t, ok)
}

// TestInstanceIsolation confirms state belonging to one (chain_id,
// task_number) is never visible to, or mutated through, a lookup for a
// different (chain_id, task_number), even when the window is identical.
func TestInstanceIsolation(t *testing.T) {
	reg := NewRegistry()
	w := Window{Start: 0, End: 10, Kind: WindowTumbling}

	keyA := Key{ChainID: 1, TaskNumber: 0, Window: w}
	keyB := Key{ChainID: 1, TaskNumber: 1, Window: w}
	keyC := Key{ChainID: 2, TaskNumber: 0, Window: w}

	sa := reg.GetOrCreateState(keyA, 0)
	sa.Insert(keyRecord(0), valueRecord(100))

	sb := reg.GetOrCreateState(keyB, 0)
	sc := reg.GetOrCreateState(keyC, 0)

	assert.Equal(t, 0, sb.Len())
	assert.Equal(t, 0, sc.Len())
	assert.Equal(t, 1, sa.Len())

	_, ok := sb.Get(keyRecord(0))
	assert.False(t, ok)

	droppedB, ok := reg.RemoveDropWindow(keyB)
	require.True(t, ok)
	assert.Empty(t, droppedB.Entries())

	// keyA's state must be unaffected by dropping keyB's window.
	_, ok = reg.GetState(keyA)
	assert.True(t, ok)
	v, ok := sa.Get(keyRecord(0))
	require.True(t, ok)
	got, _ := v.NewReader().GetInt64(0)
	assert.EqualValues(t, 100, got)
}

func TestGetOrCreateStateIsIdempotentPerWindow(t *testing.T) {
	reg := NewRegistry()
	key := Key{ChainID: 1, TaskNumber: 0, Window: Window{Start: 0, End: 10}}

	s1 := reg.GetOrCreateState(key, 4)
	s1.Insert(keyRecord(0), valueRecord(1))

	s2 := reg.GetOrCreateState(key, 4)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, s2.Len())
}

func TestGetMutReturnsStoredValueForMerge(t *testing.T) {
	reg := NewRegistry()
	key := Key{ChainID: 1, TaskNumber: 0, Window: Window{Start: 0, End: 10}}
	s := reg.GetOrCreateState(key, 0)

	k := keyRecord(0)
	s.Insert(k, valueRecord(1))

	old, ok := s.GetMut(k)
	require.True(t, ok)
	oldV, _ := old.NewReader().GetInt64(0)
	s.Insert(k, valueRecord(oldV+1))

	updated, ok := s.Get(k)
	require.True(t, ok)
	newV, _ := updated.NewReader().GetInt64(0)
	assert.EqualValues(t, 2, newV)
}
