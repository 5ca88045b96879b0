// Package syncer keeps the agent's cached rules in step with the server.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dharmateja03/GoodTurkey/internal/agent/client"
	"github.com/dharmateja03/GoodTurkey/pkg/clock"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// SnapshotFetcher downloads the current projection.
type SnapshotFetcher interface {
	Snapshot(ctx context.Context) (*policy.Snapshot, error)
}

// SnapshotStore persists the projection between runs.
type SnapshotStore interface {
	ReplaceSnapshot(snap policy.Snapshot, syncedAt time.Time) error
	Rules() ([]policy.Rule, error)
}

// RuleLoader receives each accepted rule set.
type RuleLoader interface {
	Load(rules []policy.Rule) error
}

// Result describes a completed sync.
type Result struct {
	Rules    int       `json:"rules"`
	SyncedAt time.Time `json:"synced_at"`
}

type Syncer struct {
	fetcher  SnapshotFetcher
	store    SnapshotStore
	loader   RuleLoader
	clock    clock.Clock
	logger   *slog.Logger
	interval time.Duration

	// mu serialises syncs from the ticker and from POST /sync.
	mu sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func New(fetcher SnapshotFetcher, store SnapshotStore, loader RuleLoader, clk clock.Clock, logger *slog.Logger, interval time.Duration) *Syncer {
	return &Syncer{
		fetcher:  fetcher,
		store:    store,
		loader:   loader,
		clock:    clk,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Restore hands the rules cached on disk to the loader, so enforcement works
// before the first sync and while the server is unreachable.
func (s *Syncer) Restore() (int, error) {
	rules, err := s.store.Rules()
	if err != nil {
		return 0, fmt.Errorf("failed to read cached rules: %w", err)
	}
	if err := s.loader.Load(rules); err != nil {
		return 0, fmt.Errorf("cached rules are invalid: %w", err)
	}
	return len(rules), nil
}

// SyncNow fetches the projection, persists it and swaps it in. On any failure
// the previous rules stay in force; client.ErrUnauthorized is returned as is.
func (s *Syncer) SyncNow(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.fetcher.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := snap.Restrictions(); err != nil {
		return nil, fmt.Errorf("server sent an invalid snapshot: %w", err)
	}

	syncedAt := s.clock.Now()
	if err := s.store.ReplaceSnapshot(*snap, syncedAt); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}
	if err := s.loader.Load(snap.Rules); err != nil {
		return nil, err
	}

	return &Result{Rules: len(snap.Rules), SyncedAt: syncedAt}, nil
}

// Start syncs immediately and then on every tick until ctx is cancelled or
// Stop is called.
func (s *Syncer) Start(ctx context.Context) {
	defer close(s.doneCh)

	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.run(ctx)
		case <-s.stopCh:
			s.logger.Info("syncer stopped")
			return
		case <-ctx.Done():
			s.logger.Info("syncer context cancelled")
			return
		}
	}
}

func (s *Syncer) run(ctx context.Context) {
	res, err := s.SyncNow(ctx)
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		s.logger.Warn("sync rejected, keeping cached rules", slog.Any("error", err))
	case err != nil:
		s.logger.Warn("sync failed, keeping cached rules", slog.Any("error", err))
	default:
		s.logger.Info("rules synced", slog.Int("rules", res.Rules))
	}
}

// Stop signals the syncer to exit and waits for it.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}
