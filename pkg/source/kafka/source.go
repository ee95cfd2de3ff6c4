// Package kafka implements a source connector reading from Kafka via
// segmentio/kafka-go, publishing watermarks through watermark/assign and
// resuming from pkg/offset's cache on restart.
package kafka

import (
	"context"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yorkart/rlink-go/pkg/element"
	"github.com/yorkart/rlink-go/pkg/offset"
	"github.com/yorkart/rlink-go/pkg/watermark/assign"
)

// Config configures a Source.
type Config struct {
	Brokers     []string
	Topic       string
	Partition   int
	GroupID     string
	ReadTimeout time.Duration

	// DefaultOffset seeds offset.Cache.Get when no committed offset has
	// been observed yet -- typically offset.OffsetBeginning or
	// offset.OffsetEnd.
	DefaultOffset int64

	Decode func(value []byte) (*element.Record, error)
}

// Source reads a single Kafka topic/partition, decoding each message into
// a Record via Config.Decode, extracting its event-time timestamp through
// a watermark/assign.Generator, and caching offsets for restart.
type Source struct {
	cfg       Config
	reader    *kafkago.Reader
	offsets   *offset.Cache
	generator *assign.Generator
	log       *zap.SugaredLogger
}

// New constructs a Source. generator must already be configured with the
// connector's TimestampAssigner and bounded out-of-orderness.
func New(cfg Config, offsets *offset.Cache, generator *assign.Generator, log *zap.SugaredLogger) *Source {
	startOffset := offsets.Get(cfg.Topic, int32(cfg.Partition), cfg.DefaultOffset).Offset

	readerCfg := kafkago.ReaderConfig{
		Brokers:   cfg.Brokers,
		Topic:     cfg.Topic,
		Partition: cfg.Partition,
		GroupID:   cfg.GroupID,
	}
	reader := kafkago.NewReader(readerCfg)
	if startOffset >= 0 {
		_ = reader.SetOffset(startOffset)
	} else if startOffset == offset.OffsetBeginning {
		_ = reader.SetOffset(kafkago.FirstOffset)
	} else if startOffset == offset.OffsetEnd {
		_ = reader.SetOffset(kafkago.LastOffset)
	}

	return &Source{
		cfg:       cfg,
		reader:    reader,
		offsets:   offsets,
		generator: generator,
		log:       log,
	}
}

// Read performs one bounded read window: it accumulates up to count
// messages, returning early once cfg.ReadTimeout has elapsed since the
// call began.
// Every decoded record is run through the watermark generator, which is
// then evaluated against a stream-status barrier; any resulting watermark
// element is appended to the returned slice right after its data element.
// The barrier itself is not returned.
func (s *Source) Read(ctx context.Context, count int) ([]element.Element, error) {
	out := make([]element.Element, 0, count)
	deadline := time.Now().Add(s.cfg.ReadTimeout)

	for i := 0; i < count; i++ {
		readCtx, cancel := context.WithDeadline(ctx, deadline)
		msg, err := s.reader.ReadMessage(readCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break
			}
			return out, err
		}

		record, err := s.cfg.Decode(msg.Value)
		if err != nil {
			if s.log != nil {
				s.log.Errorw("kafka source: decode error, skipping message", "error", err, "offset", msg.Offset)
			}
			continue
		}
		s.offsets.Update(msg.Topic, int32(msg.Partition), msg.Offset)

		s.generator.ExtractTimestamp(record, time.Now().UnixMilli())

		out = append(out, element.NewRecordElement(record))

		if wm, ok := s.generator.GetWatermark(element.NewStreamStatusElement(false)); ok {
			out = append(out, element.NewWatermarkElement(int64(wm)))
		}
	}

	return out, nil
}

// Close closes the underlying kafka-go reader.
func (s *Source) Close() error {
	return s.reader.Close()
}
