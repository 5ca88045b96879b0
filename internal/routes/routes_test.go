package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmateja03/GoodTurkey/internal/auth"
	"github.com/dharmateja03/GoodTurkey/internal/handlers"
	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/internal/services"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

func newRouter(t *testing.T, sites *handlers.MockSiteService) (http.Handler, string) {
	t.Helper()

	tm := auth.NewTokenManager("a-test-secret-that-is-long-enough", time.Hour)
	token, _, err := tm.GenerateAccessToken("user-1", "a@example.com")
	require.NoError(t, err)

	router := chi.NewRouter()
	RegisterRoutes(router, Handlers{
		Auth:       handlers.NewAuthHandler(&handlers.MockAuthService{}, nil),
		Sites:      handlers.NewSiteHandler(sites),
		Windows:    handlers.NewWindowHandler(&handlers.MockWindowService{}),
		Categories: handlers.NewCategoryHandler(&handlers.MockCategoryService{}),
		Sync:       handlers.NewSyncHandler(&handlers.MockSyncService{}),
	}, tm)
	return router, token
}

func TestRoutes_ProtectedRequireToken(t *testing.T) {
	router, _ := newRouter(t, &handlers.MockSiteService{})

	for _, path := range []string{"/api/sites", "/api/sync", "/api/categories"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRoutes_UnlockRouteReachesService(t *testing.T) {
	var gotID, gotUser string
	router, token := newRouter(t, &handlers.MockSiteService{
		RequestUnlockFunc: func(ctx context.Context, userID, id string) (*services.SiteView, error) {
			gotID, gotUser = id, userID
			return &services.SiteView{
				Site:   &models.BlockedSite{ID: id, Pattern: "reddit.com", IsActive: true},
				Phase:  policy.PhaseUnlockPending,
				Status: policy.Status{Active: true},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/sites/abc/request-unlock", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", gotID)
	assert.Equal(t, "user-1", gotUser)
}

func TestRoutes_AttemptIsNotShadowedBySiteID(t *testing.T) {
	called := false
	router, token := newRouter(t, &handlers.MockSiteService{
		CheckURLFunc: func(ctx context.Context, userID, rawURL string) (*services.CheckResult, error) {
			called = true
			return &services.CheckResult{Host: "x.com"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/sites/attempt", strings.NewReader(`{"url":"https://x.com"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestRoutes_LoginIsPublic(t *testing.T) {
	router, _ := newRouter(t, &handlers.MockSiteService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_TimeWindowEndpoints(t *testing.T) {
	router, token := newRouter(t, &handlers.MockSiteService{})

	body := `{"site_id":"6f1c3a2e-8d4b-4c5e-9f7a-1b2c3d4e5f60","start_time":"22:00","end_time":"02:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/time-windows", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, http.StatusNotFound, w.Code, "create route registered")
	assert.NotEqual(t, http.StatusMethodNotAllowed, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/time-windows/w1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
