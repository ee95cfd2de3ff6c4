package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkart/rlink-go/pkg/element"
)

// fixedAssigner returns timestamps from a pre-set queue, independent of
// the record contents -- the tests only care about the sequence of
// extracted values.
type fixedAssigner struct {
	next int
	ts   []int64
}

func (f *fixedAssigner) ExtractTimestamp(_ *element.Record, _ int64) int64 {
	v := f.ts[f.next]
	f.next++
	return v
}

func newTestRecord() *element.Record {
	return element.NewRecord(element.Schema{element.ColumnTypeInt64})
}

// TestWatermarkEmission confirms a basic extract/emit cycle: records
// with increasing timestamps advance currentMaxTimestamp, and a
// stream-status barrier emits the bounded watermark exactly once.
func TestWatermarkEmission(t *testing.T) {
	fa := &fixedAssigner{ts: []int64{100, 200, 10000, 150}}
	g := NewGenerator(5000, fa, nil)

	for range fa.ts {
		g.ExtractTimestamp(newTestRecord(), 0)
	}

	wm, ok := g.GetWatermark(element.NewStreamStatusElement(false))
	require.True(t, ok)
	assert.EqualValues(t, 5000, wm)

	current, ok := g.GetCurrentWatermark()
	require.True(t, ok)
	assert.EqualValues(t, 5000, current)

	// A second status with no further records must not re-emit.
	_, ok = g.GetWatermark(element.NewStreamStatusElement(false))
	assert.False(t, ok)
}

// TestBoundedOutOfOrdernessLateEvent confirms that a late event
// (timestamp 3000, well below currentMaxTimestamp of 10000) does not
// move currentMaxTimestamp backward or produce a new watermark.
func TestBoundedOutOfOrdernessLateEvent(t *testing.T) {
	fa := &fixedAssigner{ts: []int64{100, 200, 10000, 150}}
	g := NewGenerator(5000, fa, nil)
	for range fa.ts {
		g.ExtractTimestamp(newTestRecord(), 0)
	}
	_, _ = g.GetWatermark(element.NewStreamStatusElement(false))

	lateAssigner := &fixedAssigner{ts: []int64{3000}}
	g.assigner = lateAssigner
	g.ExtractTimestamp(newTestRecord(), 0)

	assert.EqualValues(t, 10000, g.currentMaxTimestamp)

	_, ok := g.GetWatermark(element.NewStreamStatusElement(false))
	assert.False(t, ok)
}

// TestNonStatusElementNeverEmits checks that record/watermark elements
// never trigger an evaluation.
func TestNonStatusElementNeverEmits(t *testing.T) {
	g := NewGenerator(0, TimestampAssignerFunc(func(_ *element.Record, _ int64) int64 { return 100 }), nil)
	g.ExtractTimestamp(newTestRecord(), 0)

	_, ok := g.GetWatermark(element.NewRecordElement(newTestRecord()))
	assert.False(t, ok)

	_, ok = g.GetWatermark(element.NewWatermarkElement(100))
	assert.False(t, ok)
}

// TestMonotonicity confirms successive emitted watermarks strictly
// increase.
func TestMonotonicity(t *testing.T) {
	fa := &fixedAssigner{ts: []int64{1000, 2000, 3000, 4000, 5000}}
	g := NewGenerator(0, fa, nil)

	var last int64
	for range fa.ts {
		g.ExtractTimestamp(newTestRecord(), 0)
		wm, ok := g.GetWatermark(element.NewStreamStatusElement(false))
		if ok {
			require.Greater(t, int64(wm), last)
			last = int64(wm)
		}
	}
}

// TestTimestampCeiling confirms currentMaxTimestamp never moves
// backward, even when a later ExtractTimestamp call reports a smaller
// timestamp.
func TestTimestampCeiling(t *testing.T) {
	fa := &fixedAssigner{ts: []int64{500, 100, 900, 50}}
	g := NewGenerator(0, fa, nil)

	var ceiling int64
	for range fa.ts {
		g.ExtractTimestamp(newTestRecord(), 0)
		assert.GreaterOrEqual(t, g.currentMaxTimestamp, ceiling)
		if g.currentMaxTimestamp > ceiling {
			ceiling = g.currentMaxTimestamp
		}
	}
	assert.EqualValues(t, 900, ceiling)
}
