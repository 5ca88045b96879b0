package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAttemptStore struct {
	mu      sync.Mutex
	batches []map[string]int64
	err     error
}

func (m *mockAttemptStore) AddAttempts(ctx context.Context, counts map[string]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, counts)
	return m.err
}

func (m *mockAttemptStore) total(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.batches {
		n += b[id]
	}
	return n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAttemptFlusher_FlushAggregates(t *testing.T) {
	store := &mockAttemptStore{}
	f := NewAttemptFlusher(store, quietLogger(), time.Hour)

	f.Record("a")
	f.Record("a")
	f.Record("b")
	assert.Equal(t, 2, f.Pending())

	f.Flush(context.Background())

	require.Len(t, store.batches, 1)
	assert.Equal(t, map[string]int64{"a": 2, "b": 1}, store.batches[0])
	assert.Equal(t, 0, f.Pending())

	f.Flush(context.Background())
	assert.Len(t, store.batches, 1, "nothing to flush")
}

func TestAttemptFlusher_FailedFlushIsDropped(t *testing.T) {
	store := &mockAttemptStore{err: errors.New("db down")}
	f := NewAttemptFlusher(store, quietLogger(), time.Hour)

	f.Record("a")
	f.Flush(context.Background())

	assert.Equal(t, 0, f.Pending())
}

func TestAttemptFlusher_StopFlushesRemaining(t *testing.T) {
	store := &mockAttemptStore{}
	f := NewAttemptFlusher(store, quietLogger(), time.Hour)

	go f.Start(context.Background())
	f.Record("a")
	f.Stop()

	assert.Equal(t, int64(1), store.total("a"))
	f.Stop()
}

func TestAttemptFlusher_TickerFlushes(t *testing.T) {
	store := &mockAttemptStore{}
	f := NewAttemptFlusher(store, quietLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go f.Start(ctx)

	f.Record("a")
	assert.Eventually(t, func() bool { return store.total("a") == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-f.doneCh
}

func TestAttemptFlusher_ConcurrentRecord(t *testing.T) {
	store := &mockAttemptStore{}
	f := NewAttemptFlusher(store, quietLogger(), time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Record("a")
		}()
	}
	wg.Wait()
	f.Flush(context.Background())

	assert.Equal(t, int64(50), store.total("a"))
}
