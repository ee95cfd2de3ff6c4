// Package assign implements the bounded-out-of-orderness watermark
// generator: it turns a stream of records into (record, timestamp) pairs
// and periodically emits strictly increasing watermarks on stream-status
// control elements.
package assign

import (
	"go.uber.org/zap"

	"github.com/yorkart/rlink-go/pkg/element"
	"github.com/yorkart/rlink-go/pkg/watermark"
)

// TimestampAssigner extracts an event-time timestamp from a record. The
// engine calls ExtractTimestamp exactly once per record; implementations
// must be pure with respect to the record (no side effects that would
// change the result on a second call with the same input).
type TimestampAssigner interface {
	ExtractTimestamp(r *element.Record, previousTimestamp int64) int64
}

// TimestampAssignerFunc adapts a plain function to the TimestampAssigner
// interface, the way http.HandlerFunc adapts a function to http.Handler.
type TimestampAssignerFunc func(r *element.Record, previousTimestamp int64) int64

func (f TimestampAssignerFunc) ExtractTimestamp(r *element.Record, previousTimestamp int64) int64 {
	return f(r, previousTimestamp)
}

// Generator is a BoundedOutOfOrdernessTimestampExtractor: it assumes
// event-time timestamps never lag more than maxOutOfOrderness behind the
// highest timestamp seen so far, and emits a watermark of
// currentMaxTimestamp - maxOutOfOrderness whenever that value advances.
//
// currentMaxTimestamp only ever moves forward, in ExtractTimestamp;
// lastEmittedWatermark only ever moves forward, in GetWatermark.
// currentMaxTimestamp starts at maxOutOfOrderness rather than zero, so
// the first emission requires at least one in-band record to have been
// seen.
type Generator struct {
	assigner TimestampAssigner

	maxOutOfOrderness        int64
	currentMaxTimestamp      int64
	lastEmittedWatermark     int64
	previousEmittedWatermark int64

	logger *zap.SugaredLogger
}

// NewGenerator constructs a Generator with the given bounded
// out-of-orderness (in milliseconds) and delegate assigner.
func NewGenerator(maxOutOfOrdernessMillis int64, assigner TimestampAssigner, logger *zap.SugaredLogger) *Generator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Generator{
		assigner:            assigner,
		maxOutOfOrderness:   maxOutOfOrdernessMillis,
		currentMaxTimestamp: maxOutOfOrdernessMillis,
		logger:              logger,
	}
}

// ExtractTimestamp delegates to the configured TimestampAssigner, returns
// its result and ratchets currentMaxTimestamp upward; it never rolls
// currentMaxTimestamp back. The timestamp is not stored on the record.
func (g *Generator) ExtractTimestamp(r *element.Record, previousTimestamp int64) int64 {
	ts := g.assigner.ExtractTimestamp(r, previousTimestamp)
	if ts > g.currentMaxTimestamp {
		g.currentMaxTimestamp = ts
	}
	return ts
}

// GetWatermark evaluates a control element and, for a StreamStatus
// barrier, returns a new watermark if currentMaxTimestamp -
// maxOutOfOrderness has advanced past lastEmittedWatermark. Any other
// element kind never produces a watermark.
func (g *Generator) GetWatermark(e element.Element) (watermark.Watermark, bool) {
	if !e.IsStreamStatus() {
		return 0, false
	}

	potential := g.currentMaxTimestamp - g.maxOutOfOrderness
	g.logger.Debugw("evaluating potential watermark",
		"potential", potential,
		"currentMaxTimestamp", g.currentMaxTimestamp,
		"maxOutOfOrderness", g.maxOutOfOrderness,
	)
	if potential > g.lastEmittedWatermark {
		g.previousEmittedWatermark = g.lastEmittedWatermark
		g.lastEmittedWatermark = potential
		g.logger.Debugw("emitting watermark", "watermark", g.lastEmittedWatermark)
		return watermark.Watermark(g.lastEmittedWatermark), true
	}
	return 0, false
}

// GetCurrentWatermark returns the most recently emitted watermark, or
// false if none has been emitted yet.
func (g *Generator) GetCurrentWatermark() (watermark.Watermark, bool) {
	if g.lastEmittedWatermark == 0 {
		return 0, false
	}
	return watermark.Watermark(g.lastEmittedWatermark), true
}
