package services

import (
	"context"
	"log/slog"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/pkg/clock"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// ActiveSiteLister loads a user's active sites
type ActiveSiteLister interface {
	ListActiveByUser(ctx context.Context, userID string) ([]*models.BlockedSite, error)
}

// SyncService builds the projection agents cache for offline enforcement.
type SyncService struct {
	sites   ActiveSiteLister
	windows WindowLister
	clock   clock.Clock
	logger  *slog.Logger
}

func NewSyncService(sites ActiveSiteLister, windows WindowLister, clk clock.Clock, logger *slog.Logger) *SyncService {
	return &SyncService{sites: sites, windows: windows, clock: clk, logger: logger}
}

// Snapshot returns the caller's active restrictions without lifecycle state.
func (s *SyncService) Snapshot(ctx context.Context, userID string) (*policy.Snapshot, error) {
	sites, err := s.sites.ListActiveByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list active sites", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	ids := make([]string, len(sites))
	for i, site := range sites {
		ids[i] = site.ID
	}
	windows, err := s.windows.ListBySiteIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load windows", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	snap := &policy.Snapshot{Timestamp: s.clock.Now().UTC(), Rules: make([]policy.Rule, 0, len(sites))}
	for _, site := range sites {
		site.Windows = windows[site.ID]
		snap.Rules = append(snap.Rules, policy.RuleOf(site.Restriction()))
	}

	s.logger.Debug("sync snapshot built", slog.String("user_id", userID), slog.Int("rules", len(snap.Rules)))
	return snap, nil
}
