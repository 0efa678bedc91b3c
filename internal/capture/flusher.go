package capture

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/runnerr0/secondbrain/internal/activity"
	"github.com/runnerr0/secondbrain/internal/logging"
	"github.com/runnerr0/secondbrain/internal/storage"
)

// Flusher drains the event buffer into an EventStore on a fixed interval.
type Flusher struct {
	buffer   *activity.EventBuffer
	store    storage.EventStore
	interval time.Duration
	batch    int
	log      logrus.FieldLogger
}

// NewFlusher creates a flusher. batch <= 0 drains everything each tick.
func NewFlusher(buffer *activity.EventBuffer, store storage.EventStore, interval time.Duration, batch int, log logrus.FieldLogger) *Flusher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Flusher{
		buffer:   buffer,
		store:    store,
		interval: interval,
		batch:    batch,
		log:      logging.OrDiscard(log),
	}
}

// Run flushes until ctx is done, then performs one final drain.
func (f *Flusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// ctx is already cancelled; the final drain gets its own deadline.
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			f.Flush(final, 0)
			cancel()
			return
		case <-ticker.C:
			f.Flush(ctx, f.batch)
		}
	}
}

// Flush moves up to limit events (all if limit <= 0) from the buffer to the
// store and returns how many were stored. Events the store rejects are
// logged and dropped.
func (f *Flusher) Flush(ctx context.Context, limit int) int {
	stored := 0
	for i := 0; limit <= 0 || i < limit; i++ {
		e, ok := f.buffer.PopFront()
		if !ok {
			break
		}
		if err := f.store.StoreEvent(ctx, &e); err != nil {
			f.log.WithError(err).WithField("app", e.Context.AppName).Warn("dropping event, store failed")
			continue
		}
		stored++
	}
	if stored > 0 {
		f.log.WithField("count", stored).Debug("flushed events")
	}
	return stored
}
