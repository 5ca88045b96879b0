package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AttemptStore persists accumulated access-attempt counts.
type AttemptStore interface {
	AddAttempts(ctx context.Context, counts map[string]int64) error
}

// AttemptFlusher buffers access-attempt increments in memory and writes them
// out periodically. Counts are best effort: a failed flush is logged and
// dropped so the blocking decision never waits on the database.
type AttemptFlusher struct {
	store    AttemptStore
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	pending map[string]int64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewAttemptFlusher(store AttemptStore, logger *slog.Logger, interval time.Duration) *AttemptFlusher {
	return &AttemptFlusher{
		store:    store,
		logger:   logger,
		interval: interval,
		pending:  make(map[string]int64),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Record counts one denied navigation for siteID. It never blocks on I/O.
func (f *AttemptFlusher) Record(siteID string) {
	f.mu.Lock()
	f.pending[siteID]++
	f.mu.Unlock()
}

// Pending returns the number of sites with unflushed counts.
func (f *AttemptFlusher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Start flushes on every tick until ctx is cancelled or Stop is called, then
// flushes once more.
func (f *AttemptFlusher) Start(ctx context.Context) {
	defer close(f.doneCh)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.Flush(ctx)
		case <-f.stopCh:
			f.finalFlush()
			f.logger.Info("attempt flusher stopped")
			return
		case <-ctx.Done():
			f.finalFlush()
			f.logger.Info("attempt flusher context cancelled")
			return
		}
	}
}

func (f *AttemptFlusher) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.Flush(ctx)
}

// Flush writes the buffered counts.
func (f *AttemptFlusher) Flush(ctx context.Context) {
	f.mu.Lock()
	if len(f.pending) == 0 {
		f.mu.Unlock()
		return
	}
	batch := f.pending
	f.pending = make(map[string]int64)
	f.mu.Unlock()

	flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := f.store.AddAttempts(flushCtx, batch); err != nil {
		f.logger.Warn("dropping access attempt counts",
			slog.Int("sites", len(batch)),
			slog.Any("error", err))
		return
	}

	f.logger.Debug("access attempts flushed", slog.Int("sites", len(batch)))
}

// Stop signals the flusher to exit and waits for the final flush.
func (f *AttemptFlusher) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
	<-f.doneCh
}
