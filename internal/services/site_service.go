package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/pkg/clock"
	pkglogger "github.com/dharmateja03/GoodTurkey/pkg/logger"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// SiteRepository defines the data access the site service needs
type SiteRepository interface {
	GetByID(ctx context.Context, userID, id string) (*models.BlockedSite, error)
	ListByUser(ctx context.Context, userID string) ([]*models.BlockedSite, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*models.BlockedSite, error)
	Create(ctx context.Context, site *models.BlockedSite) (*models.BlockedSite, error)
	Update(ctx context.Context, site *models.BlockedSite, prev policy.Lock) (*models.BlockedSite, error)
	Delete(ctx context.Context, userID, id string, prev policy.Lock) error
}

// WindowLister loads the time windows of a set of sites
type WindowLister interface {
	ListBySiteIDs(ctx context.Context, siteIDs []string) (map[string][]models.TimeWindow, error)
}

// CategoryLookup resolves a category owned by a user
type CategoryLookup interface {
	GetByID(ctx context.Context, userID, id string) (*models.Category, error)
}

// AttemptRecorder counts denied navigations
type AttemptRecorder interface {
	Record(siteID string)
}

// SiteView is a site together with its lifecycle status at a given instant.
type SiteView struct {
	Site   *models.BlockedSite
	Phase  policy.Phase
	Status policy.Status
}

type CreateSiteInput struct {
	Pattern    string
	CategoryID *string
}

// UpdateSiteInput carries a partial update. A CategoryID pointing at an empty
// string removes the category.
type UpdateSiteInput struct {
	Pattern    *string
	IsActive   *bool
	CategoryID *string
}

// CheckResult is the outcome of checking a navigated URL.
type CheckResult struct {
	Host    string
	Blocked bool
	Matched []string
}

// SiteService owns the unlock lifecycle of blocked sites. Gate decisions are
// made by the policy package against the clock; writes are conditioned on the
// lifecycle state that was read.
type SiteService struct {
	repo       SiteRepository
	windows    WindowLister
	categories CategoryLookup
	attempts   AttemptRecorder
	lifecycle  policy.Lifecycle
	clock      clock.Clock
	logger     *slog.Logger
	audit      *pkglogger.AuditLogger
}

func NewSiteService(
	repo SiteRepository,
	windows WindowLister,
	categories CategoryLookup,
	attempts AttemptRecorder,
	lifecycle policy.Lifecycle,
	clk clock.Clock,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *SiteService {
	return &SiteService{
		repo:       repo,
		windows:    windows,
		categories: categories,
		attempts:   attempts,
		lifecycle:  lifecycle,
		clock:      clk,
		logger:     logger,
		audit:      audit,
	}
}

// UnlockDelay returns the configured cooldown.
func (s *SiteService) UnlockDelay() time.Duration {
	return s.lifecycle.Delay()
}

func (s *SiteService) view(site *models.BlockedSite, now time.Time) *SiteView {
	return &SiteView{
		Site:   site,
		Phase:  s.lifecycle.State(site.Lock(), now).Phase,
		Status: s.lifecycle.Status(site.Lock(), now),
	}
}

// repoError maps repository failures onto the model sentinels, logging the
// unexpected ones.
func (s *SiteService) repoError(op, siteID string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrConflict):
		return models.ErrConflict
	case errors.Is(err, models.ErrStale):
		s.logger.Info("site changed concurrently", slog.String("op", op), slog.String("site_id", siteID))
		return models.ErrStale
	case errors.Is(err, models.ErrBadRequest):
		return models.ErrBadRequest
	default:
		s.logger.Error("site repository failure",
			slog.String("op", op),
			slog.String("site_id", siteID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}
}

func (s *SiteService) attachWindows(ctx context.Context, sites []*models.BlockedSite) error {
	ids := make([]string, len(sites))
	for i, site := range sites {
		ids[i] = site.ID
	}
	windows, err := s.windows.ListBySiteIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, site := range sites {
		site.Windows = windows[site.ID]
	}
	return nil
}

func (s *SiteService) load(ctx context.Context, op, userID, id string) (*models.BlockedSite, error) {
	site, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, s.repoError(op, id, err)
	}
	return site, nil
}

// ListSites returns every site of the user with windows and status.
func (s *SiteService) ListSites(ctx context.Context, userID string) ([]*SiteView, error) {
	sites, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.repoError("list", "", err)
	}
	if err := s.attachWindows(ctx, sites); err != nil {
		return nil, s.repoError("list_windows", "", err)
	}

	now := s.clock.Now()
	views := make([]*SiteView, len(sites))
	for i, site := range sites {
		views[i] = s.view(site, now)
	}
	return views, nil
}

func (s *SiteService) GetSite(ctx context.Context, userID, id string) (*SiteView, error) {
	site, err := s.load(ctx, "get", userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachWindows(ctx, []*models.BlockedSite{site}); err != nil {
		return nil, s.repoError("get_windows", id, err)
	}
	return s.view(site, s.clock.Now()), nil
}

func (s *SiteService) checkCategory(ctx context.Context, userID string, categoryID *string) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, userID, *categoryID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &policy.ValidationError{Field: "category_id", Reason: "does not exist"}
		}
		return s.repoError("category_lookup", "", err)
	}
	return nil
}

// CreateSite adds a new active restriction with no windows.
func (s *SiteService) CreateSite(ctx context.Context, userID string, in CreateSiteInput) (*SiteView, error) {
	pattern, err := policy.NormalizePattern(in.Pattern)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, in.CategoryID); err != nil {
		return nil, err
	}
	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}

	site, err := s.repo.Create(ctx, &models.BlockedSite{
		UserID:     userID,
		CategoryID: in.CategoryID,
		Pattern:    pattern,
		IsActive:   true,
	})
	if err != nil {
		return nil, s.repoError("create", "", err)
	}

	s.logger.Info("blocked site created", slog.String("site_id", site.ID), slog.String("user_id", userID))
	return s.view(site, s.clock.Now()), nil
}

// UpdateSite applies a partial update. Turning an active site off passes
// through the unlock gate; every successful update clears the cooldown.
func (s *SiteService) UpdateSite(ctx context.Context, userID, id string, in UpdateSiteInput) (*SiteView, error) {
	site, err := s.load(ctx, "update", userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, userID, in.CategoryID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	prev := site.Lock()
	change := policy.Change{Pattern: in.Pattern, Active: in.IsActive}

	next, err := s.lifecycle.ApplyMutation(site.Restriction(), change, now)
	if err != nil {
		if change.Deactivates(site.Restriction()) {
			s.auditGate(ctx, "deactivate", userID, site, now, err)
		}
		return nil, err
	}

	updated := *site
	updated.Pattern = next.Pattern
	updated.SetLock(next.Lock())
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			updated.CategoryID = nil
		} else {
			updated.CategoryID = in.CategoryID
		}
	}

	saved, err := s.repo.Update(ctx, &updated, prev)
	if err != nil {
		return nil, s.repoError("update", id, err)
	}

	switch {
	case change.Deactivates(site.Restriction()):
		s.auditGate(ctx, "deactivate", userID, site, now, nil)
	case in.IsActive != nil && *in.IsActive && !prev.Active:
		s.auditTransition(ctx, "reactivate", userID, site, now, saved)
	}

	if err := s.attachWindows(ctx, []*models.BlockedSite{saved}); err != nil {
		return nil, s.repoError("update_windows", id, err)
	}
	return s.view(saved, now), nil
}

// RequestUnlock starts the cooldown. Repeating the request keeps the original
// start time; requesting on an inactive site changes nothing.
func (s *SiteService) RequestUnlock(ctx context.Context, userID, id string) (*SiteView, error) {
	return s.transition(ctx, "request_unlock", userID, id, s.lifecycle.RequestUnlock)
}

// CancelUnlock re-arms the lock.
func (s *SiteService) CancelUnlock(ctx context.Context, userID, id string) (*SiteView, error) {
	return s.transition(ctx, "cancel_unlock", userID, id, s.lifecycle.CancelUnlock)
}

func (s *SiteService) transition(
	ctx context.Context,
	action, userID, id string,
	step func(policy.Lock, time.Time) (policy.Lock, bool),
) (*SiteView, error) {
	site, err := s.load(ctx, action, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	prev := site.Lock()
	next, changed := step(prev, now)

	if changed {
		updated := *site
		updated.SetLock(next)
		saved, err := s.repo.Update(ctx, &updated, prev)
		if err != nil {
			return nil, s.repoError(action, id, err)
		}
		s.auditTransition(ctx, action, userID, site, now, saved)
		site = saved
	}

	if err := s.attachWindows(ctx, []*models.BlockedSite{site}); err != nil {
		return nil, s.repoError(action+"_windows", id, err)
	}
	return s.view(site, now), nil
}

// DeleteSite removes a site and its windows once the unlock cooldown has
// elapsed.
func (s *SiteService) DeleteSite(ctx context.Context, userID, id string) error {
	site, err := s.load(ctx, "delete", userID, id)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.lifecycle.CheckDelete(site.Lock(), now); err != nil {
		s.auditGate(ctx, "delete", userID, site, now, err)
		return err
	}

	if err := s.repo.Delete(ctx, userID, id, site.Lock()); err != nil {
		return s.repoError("delete", id, err)
	}

	s.auditGate(ctx, "delete", userID, site, now, nil)
	return nil
}

// CheckURL evaluates a navigated URL against the user's active sites and
// counts an attempt for every site that denies it.
func (s *SiteService) CheckURL(ctx context.Context, userID, rawURL string) (*CheckResult, error) {
	host, err := policy.HostnameOf(rawURL)
	if err != nil {
		return nil, err
	}

	sites, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, s.repoError("check", "", err)
	}
	if err := s.attachWindows(ctx, sites); err != nil {
		return nil, s.repoError("check_windows", "", err)
	}

	restrictions := make([]policy.Restriction, len(sites))
	for i, site := range sites {
		restrictions[i] = site.Restriction()
	}

	decision := policy.Decide(host, restrictions, s.clock.Now())
	for _, id := range decision.Denied {
		s.attempts.Record(id)
	}

	return &CheckResult{Host: host, Blocked: decision.Blocked, Matched: decision.Denied}, nil
}

func (s *SiteService) auditTransition(ctx context.Context, action, userID string, before *models.BlockedSite, now time.Time, after *models.BlockedSite) {
	s.audit.LogLifecycle(ctx, pkglogger.LifecycleEvent{
		Action:    action,
		UserID:    userID,
		SiteID:    before.ID,
		Pattern:   before.Pattern,
		FromPhase: s.lifecycle.State(before.Lock(), now).Phase.String(),
		ToPhase:   s.lifecycle.State(after.Lock(), now).Phase.String(),
		Success:   true,
	})
}

func (s *SiteService) auditGate(ctx context.Context, action, userID string, site *models.BlockedSite, now time.Time, gateErr error) {
	event := pkglogger.LifecycleEvent{
		Action:    action,
		UserID:    userID,
		SiteID:    site.ID,
		Pattern:   site.Pattern,
		FromPhase: s.lifecycle.State(site.Lock(), now).Phase.String(),
		Success:   gateErr == nil,
	}

	var notReady *policy.UnlockNotReadyError
	switch {
	case gateErr == nil:
		if action == "delete" {
			event.ToPhase = "deleted"
		} else {
			event.ToPhase = policy.PhaseInactive.String()
		}
	case errors.As(gateErr, &notReady):
		event.Reason = "unlock_not_ready"
		ms := notReady.RemainingMs()
		event.RemainingMs = &ms
	case errors.Is(gateErr, policy.ErrUnlockNotRequested):
		event.Reason = "unlock_not_requested"
	default:
		event.Reason = gateErr.Error()
	}

	s.audit.LogLifecycle(ctx, event)
}
