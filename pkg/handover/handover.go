// Package handover implements the named, metered, bounded buffer that
// connects an operator's synchronous hot path to its background worker
// goroutines: produce_always on the operator side, poll_next on the
// worker side.
package handover

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yorkart/rlink-go/pkg/element"
)

// ErrEmpty is returned by PollNext when no record is currently available.
// Callers poll in a loop, sleeping between attempts; it is not a failure.
var ErrEmpty = errors.New("handover: empty")

var (
	depthGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rlink",
		Subsystem: "handover",
		Name:      "depth_records",
		Help:      "Current number of records buffered in a handover channel.",
	}, []string{"name", "chain_id", "task_number"})

	enqueuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rlink",
		Subsystem: "handover",
		Name:      "enqueued_total",
		Help:      "Total records produced into a handover channel.",
	}, []string{"name", "chain_id", "task_number"})

	dequeuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rlink",
		Subsystem: "handover",
		Name:      "dequeued_total",
		Help:      "Total records consumed from a handover channel.",
	}, []string{"name", "chain_id", "task_number"})

	bytesGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rlink",
		Subsystem: "handover",
		Name:      "bytes_in_flight",
		Help:      "Approximate bytes buffered in a handover channel.",
	}, []string{"name", "chain_id", "task_number"})
)

func init() {
	prometheus.MustRegister(depthGauge, enqueuedTotal, dequeuedTotal, bytesGauge)
}

// Tag is one (key, value) pair used to label a Handover's metrics, e.g.
// {"chain_id", "1"} or {"task_number", "0"}.
type Tag struct {
	Key   string
	Value string
}

// Handover is a named, bounded, multi-producer/single-consumer buffer.
// Two limits are enforced: a record count (the channel capacity) and an
// approximate byte budget tracked alongside it. ProduceAlways blocks the
// caller when either limit is reached; this is the only backpressure
// mechanism -- there is no drop path on the operator hot path.
type Handover struct {
	name string

	ch chan *element.Record

	capacityBytes int64
	bytesInFlight *int64

	labels prometheus.Labels
}

// New constructs a Handover with the given name, metric tags, record
// capacity and approximate byte budget.
func New(name string, tags []Tag, capacityRecords int, capacityBytes int64) *Handover {
	labels := prometheus.Labels{"name": name, "chain_id": "", "task_number": ""}
	for _, t := range tags {
		labels[t.Key] = t.Value
	}
	var bytesInFlight int64
	return &Handover{
		name:          name,
		ch:            make(chan *element.Record, capacityRecords),
		capacityBytes: capacityBytes,
		bytesInFlight: &bytesInFlight,
		labels:        labels,
	}
}

// recordSize estimates a record's contribution to the byte budget. This
// is approximate by design: it is good enough to bound memory without
// requiring an exact accounting of every allocation a Record holds.
func recordSize(r *element.Record) int64 {
	return int64(len(r.Schema())) + 64
}

// ProduceAlways enqueues a record, blocking the caller until there is
// room. It never drops a record: this is the operator hot path and must
// guarantee at-least-once handoff to the downstream worker.
func (h *Handover) ProduceAlways(r *element.Record) {
	// The byte budget is a secondary limit on top of the channel's own
	// record-count capacity: the channel send below already blocks once
	// capacityRecords records are buffered, but a handful of oversized
	// records could exceed capacityBytes while the channel still has free
	// slots. Back off briefly until a consumer drains enough bytes.
	for h.capacityBytes > 0 && atomic.LoadInt64(h.bytesInFlight) >= h.capacityBytes {
		time.Sleep(time.Millisecond)
	}
	atomic.AddInt64(h.bytesInFlight, recordSize(r))
	h.ch <- r
	enqueuedTotal.With(h.labels).Inc()
	depthGauge.With(h.labels).Set(float64(len(h.ch)))
	bytesGauge.With(h.labels).Set(float64(atomic.LoadInt64(h.bytesInFlight)))
}

// PollNext performs a non-blocking single-record dequeue. It returns
// ErrEmpty when no record is ready; callers poll in a loop with short
// sleeps or timeouts.
func (h *Handover) PollNext() (*element.Record, error) {
	select {
	case r := <-h.ch:
		atomic.AddInt64(h.bytesInFlight, -recordSize(r))
		dequeuedTotal.With(h.labels).Inc()
		depthGauge.With(h.labels).Set(float64(len(h.ch)))
		bytesGauge.With(h.labels).Set(float64(atomic.LoadInt64(h.bytesInFlight)))
		return r, nil
	default:
		return nil, ErrEmpty
	}
}

// Clone returns an additional producer handle sharing this Handover's
// channel and metrics -- the consumer side is shared across all clones.
func (h *Handover) Clone() *Handover {
	return &Handover{
		name:          h.name,
		ch:            h.ch,
		capacityBytes: h.capacityBytes,
		bytesInFlight: h.bytesInFlight,
		labels:        h.labels,
	}
}

// Name returns the handover's configured name.
func (h *Handover) Name() string {
	return h.name
}

// Len returns the current number of buffered records, for diagnostics.
func (h *Handover) Len() int {
	return len(h.ch)
}
