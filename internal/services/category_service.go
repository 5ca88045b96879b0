package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

const maxCategoryName = 100

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CategoryRepository defines the data access for categories
type CategoryRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Category, error)
	GetByID(ctx context.Context, userID, id string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) (*models.Category, error)
	Delete(ctx context.Context, userID, id string) error
}

type CategoryInput struct {
	Name  string
	Color string
}

type CategoryService struct {
	repo   CategoryRepository
	logger *slog.Logger
}

func NewCategoryService(repo CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, logger: logger}
}

func normalizeCategory(in CategoryInput) (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, &policy.ValidationError{Field: "name", Reason: "is required"}
	}
	if len(in.Name) > maxCategoryName {
		return in, &policy.ValidationError{Field: "name", Reason: "is too long"}
	}

	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = models.DefaultCategoryColor
	}
	if !hexColor.MatchString(in.Color) {
		return in, &policy.ValidationError{Field: "color", Reason: "must be a #RRGGBB hex color"}
	}
	return in, nil
}

func (s *CategoryService) ListCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	categories, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.repoError("list", "", err)
	}
	return categories, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, userID string, in CategoryInput) (*models.Category, error) {
	in, err := normalizeCategory(in)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.Create(ctx, &models.Category{UserID: userID, Name: in.Name, Color: in.Color})
	if err != nil {
		return nil, s.repoError("create", "", err)
	}
	s.logger.Info("category created", slog.String("category_id", c.ID), slog.String("user_id", userID))
	return c, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, userID, id string, in CategoryInput) (*models.Category, error) {
	in, err := normalizeCategory(in)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.Update(ctx, &models.Category{ID: id, UserID: userID, Name: in.Name, Color: in.Color})
	if err != nil {
		return nil, s.repoError("update", id, err)
	}
	return c, nil
}

// DeleteCategory removes a category. Sites in it become uncategorised.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return s.repoError("delete", id, err)
	}
	s.logger.Info("category deleted", slog.String("category_id", id), slog.String("user_id", userID))
	return nil
}

func (s *CategoryService) repoError(op, id string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrConflict):
		return models.ErrConflict
	default:
		s.logger.Error("category repository failure",
			slog.String("op", op),
			slog.String("id", id),
			slog.Any("error", err))
		return models.ErrInternalServer
	}
}
