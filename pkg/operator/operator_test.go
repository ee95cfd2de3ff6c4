package operator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkart/rlink-go/pkg/element"
	"github.com/yorkart/rlink-go/pkg/handover"
	"github.com/yorkart/rlink-go/pkg/watermark/assign"
)

func testRecord() *element.Record {
	r := element.NewRecord(element.Schema{element.ColumnTypeInt64})
	_ = r.NewWriter().SetInt64(42)
	return r
}

// drainWorker is a Worker that counts every record it pulls off the
// handover until ctx is done.
func drainWorker(received *int64) Worker {
	return func(ctx context.Context, h *handover.Handover) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if _, err := h.PollNext(); err == nil {
				atomic.AddInt64(received, 1)
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Millisecond):
			}
		}
	}
}

func TestOpenWriteRecordClose(t *testing.T) {
	var received int64
	o := New("test-op", nil, 16, 0, nil, drainWorker(&received), nil)

	o.Open(context.Background())
	for i := 0; i < 5; i++ {
		o.WriteRecord(element.NewRecordElement(testRecord()))
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&received) == 5
	}, time.Second, time.Millisecond, "worker should drain every written record")

	o.Close()
}

// TestWriteRecordEmitsWatermark confirms the watermark generator is
// evaluated on a stream-status element and the resulting watermark is
// surfaced through WriteRecord's return value.
func TestWriteRecordEmitsWatermark(t *testing.T) {
	var received int64
	assigner := assign.TimestampAssignerFunc(func(r *element.Record, _ int64) int64 {
		return 1000
	})
	gen := assign.NewGenerator(100, assigner, nil)
	o := New("test-op", nil, 16, 0, gen, drainWorker(&received), nil)

	o.Open(context.Background())
	defer o.Close()

	_, ok := o.WriteRecord(element.NewRecordElement(testRecord()))
	assert.False(t, ok, "a data record alone carries no watermark")

	wm, ok := o.WriteRecord(element.NewStreamStatusElement(false))
	require.True(t, ok, "a stream-status barrier after an in-band record should emit a watermark")
	assert.EqualValues(t, 900, wm)
}

func TestStopWaitsForWorkerExit(t *testing.T) {
	exited := make(chan struct{})
	worker := func(ctx context.Context, h *handover.Handover) error {
		<-ctx.Done()
		close(exited)
		return nil
	}
	o := New("test-op", nil, 16, 0, nil, worker, nil)
	o.Open(context.Background())

	o.Stop()
	select {
	case <-exited:
	default:
		t.Fatal("Stop should not return before the worker has exited")
	}
}

// TestForceStopDoesNotWait confirms ForceStop cancels the worker's
// context without blocking for its exit, unlike Stop's grace period.
func TestForceStopDoesNotWait(t *testing.T) {
	release := make(chan struct{})
	worker := func(ctx context.Context, h *handover.Handover) error {
		<-ctx.Done()
		<-release
		return nil
	}
	o := New("test-op", nil, 16, 0, nil, worker, nil)
	o.Open(context.Background())

	done := make(chan struct{})
	go func() {
		o.ForceStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ForceStop should return immediately, without waiting for the worker")
	}
	close(release)
}
