package cluster

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LoopUntilSuccess calls fn repeatedly, sleeping interval between
// attempts, until fn returns a nil error or ctx is done. Metadata
// storage call sites use this rather than propagating a transient
// failure up to the caller.
func LoopUntilSuccess(ctx context.Context, interval time.Duration, log *zap.SugaredLogger, fn func() error) error {
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if log != nil {
			log.Errorw("retrying after error", "error", err, "interval", interval)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
