// Package sink implements the batching sink pipeline: a pool of worker
// goroutines, each polling records off a shared handover, accumulating
// them into vendor batches, and flushing on a size/timeout policy.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yorkart/rlink-go/pkg/element"
	"github.com/yorkart/rlink-go/pkg/handover"
)

// Batch accumulates records into a vendor-specific wire format.
type Batch interface {
	Append(record *element.Record) error
	// Flush finalizes the batch and hands it to client for insertion;
	// it is called at most once per Batch.
	Flush(ctx context.Context, client Client, table string) error
}

// Converter builds a fresh Batch of the requested capacity hint. One
// Converter is shared across all of a sink's worker goroutines and must
// be safe for concurrent use; the Batches it returns need not be, since
// each worker owns the Batch it creates.
type Converter interface {
	CreateBatch(batchSize int) Batch
}

// Client is the vendor connection a sink writes through: one per Sink,
// opened from Config.Dial during Open and shared by all of its workers,
// so it must be safe for concurrent use.
type Client interface {
	CheckConnection(ctx context.Context) error
	Close() error
}

// Config configures a Sink. URL may be a comma-separated list of
// endpoints, one of which is selected per task via URL sharding.
type Config struct {
	URL          string
	Table        string
	BatchSize    int
	BatchTimeout time.Duration
	Tasks        int

	Dial func(url string) (Client, error)
}

func (c Config) urlFor(taskNumber int) string {
	urls := strings.Split(c.URL, ",")
	if len(urls) <= 1 {
		return c.URL
	}
	return urls[taskNumber%len(urls)]
}

// Sink is the operator-facing batching pipeline: WriteRecord enqueues
// onto a handover, and Tasks background workers each run an independent
// batch/flush loop against one shared vendor connection.
type Sink struct {
	cfg       Config
	converter Converter
	h         *handover.Handover
	log       *zap.SugaredLogger
}

// New constructs a Sink. chainID/taskNumber are used both for the
// handover's metric labels and for URL sharding.
func New(cfg Config, converter Converter, chainID, taskNumber int, log *zap.SugaredLogger) *Sink {
	tags := []handover.Tag{
		{Key: "chain_id", Value: fmt.Sprintf("%d", chainID)},
		{Key: "task_number", Value: fmt.Sprintf("%d", taskNumber)},
	}
	return &Sink{
		cfg:       cfg,
		converter: converter,
		h:         handover.New(fmt.Sprintf("sink-%s", cfg.Table), tags, 100000, 10<<20),
		log:       log,
	}
}

// WriteRecord enqueues a record onto the sink's handover; it blocks while
// the handover is full, giving the operator's hot path backpressure.
func (s *Sink) WriteRecord(r *element.Record) {
	s.h.ProduceAlways(r)
}

// Open selects this instance's endpoint (urls[taskNumber % len(urls)])
// and starts cfg.Tasks worker goroutines, each running run0 against one
// Client dialed once and shared by all of them. Open returns once every
// worker has exited (on ctx cancellation) or one has returned a fatal
// error.
func (s *Sink) Open(ctx context.Context, taskNumber int) error {
	url := s.cfg.urlFor(taskNumber)
	if s.log != nil {
		s.log.Infow("sink endpoint selected", "url", url, "configured", s.cfg.URL)
	}

	client, err := s.cfg.Dial(url)
	if err != nil {
		return fmt.Errorf("sink: dial %s: %w", url, err)
	}
	defer client.Close()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Tasks; i++ {
		g.Go(func() error {
			return s.run0(ctx, client)
		})
	}
	return g.Wait()
}

func (s *Sink) run0(ctx context.Context, client Client) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := s.batchSend(ctx, client)
		if err != nil {
			if s.log != nil {
				s.log.Errorw("write sink batch error", "error", err)
			}
			if rerr := s.reconnection(ctx, client); rerr != nil {
				return rerr
			}
			continue
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

func (s *Sink) reconnection(ctx context.Context, client Client) error {
	var lastErr error
	for i := 0; i < 180; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
		if err := client.CheckConnection(ctx); err != nil {
			lastErr = err
			if s.log != nil {
				s.log.Errorw("reconnection attempt failed", "attempt", i+1, "error", err)
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("sink: reconnection exhausted: %w", lastErr)
}

// batchSend accumulates up to cfg.BatchSize records off the handover and
// flushes them as one batch. size is incremented once per successful
// append, flush triggers whenever size >= 1, and the timeout check
// breaks the whole accumulation loop rather than only the empty-poll
// arm, so a steady drip of records just under batch_size can't delay a
// flush past batch_timeout indefinitely.
func (s *Sink) batchSend(ctx context.Context, client Client) (int, error) {
	batch := s.converter.CreateBatch(s.cfg.BatchSize)
	begin := time.Now()
	size := 0

loop:
	for size < s.cfg.BatchSize {
		r, err := s.h.PollNext()
		if err == nil {
			if appendErr := batch.Append(r); appendErr != nil {
				return size, appendErr
			}
			size++
			continue
		}
		if !errors.Is(err, handover.ErrEmpty) {
			return size, err
		}

		if time.Since(begin) > s.cfg.BatchTimeout {
			break
		}

		select {
		case <-ctx.Done():
			break loop
		case <-time.After(100 * time.Millisecond):
		}
	}

	if size > 0 {
		if err := batch.Flush(ctx, client, s.cfg.Table); err != nil {
			return size, err
		}
	}
	return size, nil
}
