package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// WindowRepository defines the data access for time windows. Both writes are
// scoped to sites owned by userID.
type WindowRepository interface {
	Create(ctx context.Context, userID string, w *models.TimeWindow) (*models.TimeWindow, error)
	Delete(ctx context.Context, userID, id string) error
}

type CreateWindowInput struct {
	SiteID    string
	DayOfWeek *int
	StartTime string
	EndTime   string
}

type WindowService struct {
	repo   WindowRepository
	logger *slog.Logger
}

func NewWindowService(repo WindowRepository, logger *slog.Logger) *WindowService {
	return &WindowService{repo: repo, logger: logger}
}

// CreateWindow validates the bounds and attaches a new window to a site.
// Windows only widen access, so no lifecycle gate applies.
func (s *WindowService) CreateWindow(ctx context.Context, userID string, in CreateWindowInput) (*models.TimeWindow, error) {
	w, err := policy.NewTimeWindow(in.DayOfWeek, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, userID, &models.TimeWindow{
		SiteID:    in.SiteID,
		DayOfWeek: in.DayOfWeek,
		Start:     w.Start,
		End:       w.End,
	})
	if err != nil {
		return nil, s.repoError("create", in.SiteID, err)
	}

	s.logger.Info("time window created",
		slog.String("window_id", created.ID),
		slog.String("site_id", created.SiteID),
		slog.String("user_id", userID))
	return created, nil
}

// DeleteWindow removes a window regardless of the site's lock state.
func (s *WindowService) DeleteWindow(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.repoError("delete", id, err)
	}
	s.logger.Info("time window deleted", slog.String("window_id", id), slog.String("user_id", userID))
	return nil
}

func (s *WindowService) repoError(op, id string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrBadRequest):
		return models.ErrBadRequest
	default:
		s.logger.Error("window repository failure",
			slog.String("op", op),
			slog.String("id", id),
			slog.Any("error", err))
		return models.ErrInternalServer
	}
}
