package services

import (
	"context"
	"sync"
	"time"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// MockSiteRepository implements SiteRepository for testing
type MockSiteRepository struct {
	GetByIDFunc          func(ctx context.Context, userID, id string) (*models.BlockedSite, error)
	ListByUserFunc       func(ctx context.Context, userID string) ([]*models.BlockedSite, error)
	ListActiveByUserFunc func(ctx context.Context, userID string) ([]*models.BlockedSite, error)
	CreateFunc           func(ctx context.Context, site *models.BlockedSite) (*models.BlockedSite, error)
	UpdateFunc           func(ctx context.Context, site *models.BlockedSite, prev policy.Lock) (*models.BlockedSite, error)
	DeleteFunc           func(ctx context.Context, userID, id string, prev policy.Lock) error
}

func (m *MockSiteRepository) GetByID(ctx context.Context, userID, id string) (*models.BlockedSite, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockSiteRepository) ListByUser(ctx context.Context, userID string) ([]*models.BlockedSite, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.BlockedSite{}, nil
}

func (m *MockSiteRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.BlockedSite, error) {
	if m.ListActiveByUserFunc != nil {
		return m.ListActiveByUserFunc(ctx, userID)
	}
	return []*models.BlockedSite{}, nil
}

func (m *MockSiteRepository) Create(ctx context.Context, site *models.BlockedSite) (*models.BlockedSite, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, site)
	}
	return nil, models.ErrInternalServer
}

func (m *MockSiteRepository) Update(ctx context.Context, site *models.BlockedSite, prev policy.Lock) (*models.BlockedSite, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, site, prev)
	}
	saved := *site
	return &saved, nil
}

func (m *MockSiteRepository) Delete(ctx context.Context, userID, id string, prev policy.Lock) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id, prev)
	}
	return nil
}

// MockWindowRepository implements WindowRepository and WindowLister for testing
type MockWindowRepository struct {
	CreateFunc        func(ctx context.Context, userID string, w *models.TimeWindow) (*models.TimeWindow, error)
	DeleteFunc        func(ctx context.Context, userID, id string) error
	ListBySiteIDsFunc func(ctx context.Context, siteIDs []string) (map[string][]models.TimeWindow, error)
}

func (m *MockWindowRepository) Create(ctx context.Context, userID string, w *models.TimeWindow) (*models.TimeWindow, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, w)
	}
	created := *w
	created.ID = "window-1"
	return &created, nil
}

func (m *MockWindowRepository) Delete(ctx context.Context, userID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockWindowRepository) ListBySiteIDs(ctx context.Context, siteIDs []string) (map[string][]models.TimeWindow, error) {
	if m.ListBySiteIDsFunc != nil {
		return m.ListBySiteIDsFunc(ctx, siteIDs)
	}
	return map[string][]models.TimeWindow{}, nil
}

// MockCategoryRepository implements CategoryRepository for testing
type MockCategoryRepository struct {
	ListByUserFunc func(ctx context.Context, userID string) ([]*models.Category, error)
	GetByIDFunc    func(ctx context.Context, userID, id string) (*models.Category, error)
	CreateFunc     func(ctx context.Context, c *models.Category) (*models.Category, error)
	UpdateFunc     func(ctx context.Context, c *models.Category) (*models.Category, error)
	DeleteFunc     func(ctx context.Context, userID, id string) error
}

func (m *MockCategoryRepository) ListByUser(ctx context.Context, userID string) ([]*models.Category, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.Category{}, nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, userID, id string) (*models.Category, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockCategoryRepository) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	created := *c
	created.ID = "category-1"
	return &created, nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, c)
	}
	updated := *c
	return &updated, nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, userID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	created := *user
	created.ID = "user-1"
	return &created, nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	GenerateAccessTokenFunc func(userID, email string) (string, time.Time, error)
}

func (m *MockTokenIssuer) GenerateAccessToken(userID, email string) (string, time.Time, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(userID, email)
	}
	return "token-" + userID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

// MockAttemptRecorder records the site ids it is given
type MockAttemptRecorder struct {
	mu       sync.Mutex
	Recorded []string
}

func (m *MockAttemptRecorder) Record(siteID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recorded = append(m.Recorded, siteID)
}

// NewTestSite creates an active site owned by userID
func NewTestSite(id, userID, pattern string) *models.BlockedSite {
	return &models.BlockedSite{
		ID:        id,
		UserID:    userID,
		Pattern:   pattern,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// NewTestUser creates a test user with the given password hash
func NewTestUser(id, email, passwordHash string) *models.User {
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}
