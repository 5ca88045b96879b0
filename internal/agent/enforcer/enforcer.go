// Package enforcer decides navigations offline against the cached rules.
package enforcer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dharmateja03/GoodTurkey/internal/agent/client"
	"github.com/dharmateja03/GoodTurkey/internal/agent/store"
	"github.com/dharmateja03/GoodTurkey/pkg/clock"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// reportTimeout bounds a single best-effort attempt report.
const reportTimeout = 10 * time.Second

// StatsStore persists the local block counters.
type StatsStore interface {
	Stats() (store.Stats, error)
	UpdateStats(fn func(store.Stats) store.Stats) (store.Stats, error)
}

// AttemptReporter forwards blocked navigations to the server.
type AttemptReporter interface {
	ReportAttempt(ctx context.Context, url string) (*client.AttemptResult, error)
}

// Result is the verdict for one navigation.
type Result struct {
	URL     string   `json:"url"`
	Host    string   `json:"host"`
	Blocked bool     `json:"blocked"`
	Denied  []string `json:"denied"`
}

type Enforcer struct {
	mu    sync.RWMutex
	rules []policy.Restriction
	// matches maps a hostname to the rules whose pattern it contains. It is
	// purged whenever the rule set changes; nil when caching is disabled.
	matches *lru.Cache[string, []policy.Restriction]

	clock    clock.Clock
	stats    StatsStore
	reporter AttemptReporter
	logger   *slog.Logger

	reports sync.WaitGroup
}

// New returns an enforcer with no rules. cacheSize <= 0 disables the match
// cache. reporter may be nil.
func New(clk clock.Clock, stats StatsStore, reporter AttemptReporter, cacheSize int, logger *slog.Logger) (*Enforcer, error) {
	e := &Enforcer{clock: clk, stats: stats, reporter: reporter, logger: logger}
	if cacheSize > 0 {
		cache, err := lru.New[string, []policy.Restriction](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create match cache: %w", err)
		}
		e.matches = cache
	}
	return e, nil
}

// Load replaces the rule set. A snapshot with an invalid rule is rejected as
// a whole and the previous rules stay in force.
func (e *Enforcer) Load(rules []policy.Rule) error {
	restrictions, err := policy.Snapshot{Rules: rules}.Restrictions()
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.rules = restrictions
	if e.matches != nil {
		e.matches.Purge()
	}
	e.mu.Unlock()
	return nil
}

// RuleCount returns the number of rules in force.
func (e *Enforcer) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// matching returns the rules that apply to host. The cache is filled under
// the read lock so a concurrent Load cannot be overwritten by stale matches.
func (e *Enforcer) matching(host string) []policy.Restriction {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matches != nil {
		if m, ok := e.matches.Get(host); ok {
			return m
		}
	}

	var m []policy.Restriction
	for _, r := range e.rules {
		if policy.MatchesHost(r.Pattern, host) {
			m = append(m, r)
		}
	}
	if e.matches != nil {
		e.matches.Add(host, m)
	}
	return m
}

// Check decides whether rawURL may be opened now. A block is counted locally
// and reported to the server in the background.
func (e *Enforcer) Check(rawURL string) (Result, error) {
	host, err := policy.HostnameOf(rawURL)
	if err != nil {
		return Result{}, err
	}

	now := e.clock.Now()
	d := policy.Decide(host, e.matching(host), now)

	res := Result{URL: rawURL, Host: host, Blocked: d.Blocked, Denied: d.Denied}
	if res.Denied == nil {
		res.Denied = []string{}
	}
	if !d.Blocked {
		return res, nil
	}

	if _, err := e.stats.UpdateStats(func(st store.Stats) store.Stats { return st.Record(now) }); err != nil {
		e.logger.Warn("failed to record block", slog.String("host", host), slog.Any("error", err))
	}
	e.report(rawURL)

	e.logger.Info("navigation blocked", slog.String("host", host), slog.Any("rules", d.Denied))
	return res, nil
}

func (e *Enforcer) report(rawURL string) {
	if e.reporter == nil {
		return
	}

	e.reports.Add(1)
	go func() {
		defer e.reports.Done()

		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()

		if _, err := e.reporter.ReportAttempt(ctx, rawURL); err != nil {
			e.logger.Debug("attempt report failed", slog.Any("error", err))
		}
	}()
}

// Wait blocks until in-flight attempt reports finish.
func (e *Enforcer) Wait() {
	e.reports.Wait()
}

// Stats returns the local counters as of now, rolled over to today.
func (e *Enforcer) Stats() (store.Stats, error) {
	st, err := e.stats.Stats()
	if err != nil {
		return store.Stats{}, err
	}
	return st.Rollover(e.clock.Now()), nil
}
