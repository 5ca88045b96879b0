package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/dharmateja03/GoodTurkey/internal/auth"
	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/internal/services"
	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds user claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Type:   models.TokenTypeAccess,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockSiteService implements SiteServiceInterface for testing
type MockSiteService struct {
	ListSitesFunc     func(ctx context.Context, userID string) ([]*services.SiteView, error)
	GetSiteFunc       func(ctx context.Context, userID, id string) (*services.SiteView, error)
	CreateSiteFunc    func(ctx context.Context, userID string, in services.CreateSiteInput) (*services.SiteView, error)
	UpdateSiteFunc    func(ctx context.Context, userID, id string, in services.UpdateSiteInput) (*services.SiteView, error)
	RequestUnlockFunc func(ctx context.Context, userID, id string) (*services.SiteView, error)
	CancelUnlockFunc  func(ctx context.Context, userID, id string) (*services.SiteView, error)
	DeleteSiteFunc    func(ctx context.Context, userID, id string) error
	CheckURLFunc      func(ctx context.Context, userID, rawURL string) (*services.CheckResult, error)
}

func (m *MockSiteService) ListSites(ctx context.Context, userID string) ([]*services.SiteView, error) {
	if m.ListSitesFunc == nil {
		return []*services.SiteView{}, nil
	}
	return m.ListSitesFunc(ctx, userID)
}

func (m *MockSiteService) GetSite(ctx context.Context, userID, id string) (*services.SiteView, error) {
	if m.GetSiteFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetSiteFunc(ctx, userID, id)
}

func (m *MockSiteService) CreateSite(ctx context.Context, userID string, in services.CreateSiteInput) (*services.SiteView, error) {
	if m.CreateSiteFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateSiteFunc(ctx, userID, in)
}

func (m *MockSiteService) UpdateSite(ctx context.Context, userID, id string, in services.UpdateSiteInput) (*services.SiteView, error) {
	if m.UpdateSiteFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.UpdateSiteFunc(ctx, userID, id, in)
}

func (m *MockSiteService) RequestUnlock(ctx context.Context, userID, id string) (*services.SiteView, error) {
	if m.RequestUnlockFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RequestUnlockFunc(ctx, userID, id)
}

func (m *MockSiteService) CancelUnlock(ctx context.Context, userID, id string) (*services.SiteView, error) {
	if m.CancelUnlockFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CancelUnlockFunc(ctx, userID, id)
}

func (m *MockSiteService) DeleteSite(ctx context.Context, userID, id string) error {
	if m.DeleteSiteFunc == nil {
		return nil
	}
	return m.DeleteSiteFunc(ctx, userID, id)
}

func (m *MockSiteService) CheckURL(ctx context.Context, userID, rawURL string) (*services.CheckResult, error) {
	if m.CheckURLFunc == nil {
		return &services.CheckResult{}, nil
	}
	return m.CheckURLFunc(ctx, userID, rawURL)
}

// MockWindowService implements WindowServiceInterface for testing
type MockWindowService struct {
	CreateWindowFunc func(ctx context.Context, userID string, in services.CreateWindowInput) (*models.TimeWindow, error)
	DeleteWindowFunc func(ctx context.Context, userID, id string) error
}

func (m *MockWindowService) CreateWindow(ctx context.Context, userID string, in services.CreateWindowInput) (*models.TimeWindow, error) {
	if m.CreateWindowFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateWindowFunc(ctx, userID, in)
}

func (m *MockWindowService) DeleteWindow(ctx context.Context, userID, id string) error {
	if m.DeleteWindowFunc == nil {
		return nil
	}
	return m.DeleteWindowFunc(ctx, userID, id)
}

// MockCategoryService implements CategoryServiceInterface for testing
type MockCategoryService struct {
	ListCategoriesFunc func(ctx context.Context, userID string) ([]*models.Category, error)
	CreateCategoryFunc func(ctx context.Context, userID string, in services.CategoryInput) (*models.Category, error)
	UpdateCategoryFunc func(ctx context.Context, userID, id string, in services.CategoryInput) (*models.Category, error)
	DeleteCategoryFunc func(ctx context.Context, userID, id string) error
}

func (m *MockCategoryService) ListCategories(ctx context.Context, userID string) ([]*models.Category, error) {
	if m.ListCategoriesFunc == nil {
		return []*models.Category{}, nil
	}
	return m.ListCategoriesFunc(ctx, userID)
}

func (m *MockCategoryService) CreateCategory(ctx context.Context, userID string, in services.CategoryInput) (*models.Category, error) {
	if m.CreateCategoryFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateCategoryFunc(ctx, userID, in)
}

func (m *MockCategoryService) UpdateCategory(ctx context.Context, userID, id string, in services.CategoryInput) (*models.Category, error) {
	if m.UpdateCategoryFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.UpdateCategoryFunc(ctx, userID, id, in)
}

func (m *MockCategoryService) DeleteCategory(ctx context.Context, userID, id string) error {
	if m.DeleteCategoryFunc == nil {
		return nil
	}
	return m.DeleteCategoryFunc(ctx, userID, id)
}

// MockSyncService implements SyncServiceInterface for testing
type MockSyncService struct {
	SnapshotFunc func(ctx context.Context, userID string) (*policy.Snapshot, error)
}

func (m *MockSyncService) Snapshot(ctx context.Context, userID string) (*policy.Snapshot, error) {
	if m.SnapshotFunc == nil {
		return &policy.Snapshot{Rules: []policy.Rule{}}, nil
	}
	return m.SnapshotFunc(ctx, userID)
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc    func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error)
	RegisterFunc func(ctx context.Context, email, password, name string, client services.ClientInfo) (*services.AuthResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, email, password, client)
}

func (m *MockAuthService) Register(ctx context.Context, email, password, name string, client services.ClientInfo) (*services.AuthResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, email, password, name, client)
}
