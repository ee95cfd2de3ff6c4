// Package operator generalizes the connector-agnostic lifecycle a sink or
// source runs under: Open spawns background work tied to a cancellable
// context, WriteRecord hands records to it through a handover, and
// Close/Stop/ForceStop tear it down.
package operator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yorkart/rlink-go/pkg/element"
	"github.com/yorkart/rlink-go/pkg/handover"
	"github.com/yorkart/rlink-go/pkg/watermark/assign"
)

// Worker is the background job an Operator runs after Open: a sink's
// batch/flush loop, or a source's poll/emit loop. It must return once ctx
// is done.
type Worker func(ctx context.Context, h *handover.Handover) error

// Operator owns one handover and a watermark generator, and manages the
// lifecycle of a single background Worker goroutine.
type Operator struct {
	name string

	h         *handover.Handover
	generator *assign.Generator
	worker    Worker
	log       *zap.SugaredLogger

	lifecycleCtx context.Context
	cancelFn     context.CancelFunc
	done         chan error
}

// New constructs an Operator. capacityRecords/capacityBytes size the
// handover buffer between WriteRecord and the background worker.
func New(name string, tags []handover.Tag, capacityRecords int, capacityBytes int64, generator *assign.Generator, worker Worker, log *zap.SugaredLogger) *Operator {
	return &Operator{
		name:      name,
		h:         handover.New(name, tags, capacityRecords, capacityBytes),
		generator: generator,
		worker:    worker,
		log:       log,
	}
}

// Open starts the background worker against a context derived from ctx;
// the worker runs until Stop/ForceStop cancels it or it returns on its
// own (an unrecoverable error).
func (o *Operator) Open(ctx context.Context) {
	lifecycleCtx, cancel := context.WithCancel(ctx)
	o.lifecycleCtx = lifecycleCtx
	o.cancelFn = cancel
	o.done = make(chan error, 1)

	go func() {
		o.done <- o.worker(lifecycleCtx, o.h)
	}()
}

// WriteRecord hands a record to the background worker via the handover,
// running it through the watermark generator's timestamp extraction
// first, and evaluates the watermark generator if the element is a
// control element, returning the emitted watermark (if any) for the
// caller to forward downstream.
func (o *Operator) WriteRecord(e element.Element) (int64, bool) {
	if e.Kind == element.KindRecord {
		if o.generator != nil {
			o.generator.ExtractTimestamp(e.Record, time.Now().UnixMilli())
		}
		o.h.ProduceAlways(e.Record)
	}
	if o.generator == nil {
		return 0, false
	}
	wm, ok := o.generator.GetWatermark(e)
	if !ok {
		return 0, false
	}
	return int64(wm), true
}

// Close is Stop: it cancels the background worker's context and waits up
// to five seconds for the worker to exit. It does not make later
// WriteRecord calls fail, and records still buffered in the handover are
// drained only if the worker does so before it returns.
func (o *Operator) Close() {
	o.Stop()
}

// Stop cancels the worker's context and waits briefly for it to exit.
func (o *Operator) Stop() {
	if o.cancelFn == nil {
		return
	}
	o.cancelFn()
	select {
	case err := <-o.done:
		if err != nil && o.log != nil {
			o.log.Errorw("operator worker exited with error", "operator", o.name, "error", err)
		}
	case <-time.After(5 * time.Second):
		if o.log != nil {
			o.log.Warnw("operator worker did not exit within grace period", "operator", o.name)
		}
	}
}

// ForceStop is Stop without the grace period: it cancels and returns
// immediately, for callers that cannot afford to wait.
func (o *Operator) ForceStop() {
	if o.cancelFn == nil {
		return
	}
	o.cancelFn()
}

// Handover exposes the underlying buffer, e.g. so a Sink/source built on
// pkg/sink or pkg/source/kafka can be driven directly by the worker
// closure passed to New.
func (o *Operator) Handover() *handover.Handover {
	return o.h
}
