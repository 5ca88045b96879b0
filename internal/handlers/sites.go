package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dharmateja03/GoodTurkey/internal/auth"
	"github.com/dharmateja03/GoodTurkey/internal/services"
	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
)

// SiteServiceInterface defines the site business logic used by the handler
type SiteServiceInterface interface {
	ListSites(ctx context.Context, userID string) ([]*services.SiteView, error)
	GetSite(ctx context.Context, userID, id string) (*services.SiteView, error)
	CreateSite(ctx context.Context, userID string, in services.CreateSiteInput) (*services.SiteView, error)
	UpdateSite(ctx context.Context, userID, id string, in services.UpdateSiteInput) (*services.SiteView, error)
	RequestUnlock(ctx context.Context, userID, id string) (*services.SiteView, error)
	CancelUnlock(ctx context.Context, userID, id string) (*services.SiteView, error)
	DeleteSite(ctx context.Context, userID, id string) error
	CheckURL(ctx context.Context, userID, rawURL string) (*services.CheckResult, error)
}

// SiteHandler serves /api/sites
type SiteHandler struct {
	service SiteServiceInterface
}

func NewSiteHandler(service SiteServiceInterface) *SiteHandler {
	return &SiteHandler{service: service}
}

// userID returns the authenticated caller, writing a 401 when absent.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := auth.GetUserFromContext(r)
	if claims == nil || claims.UserID == "" {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return "", false
	}
	return claims.UserID, true
}

// List handles GET /api/sites
func (h *SiteHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	views, err := h.service.ListSites(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]SiteResponse, len(views))
	for i, v := range views {
		out[i] = toSiteResponse(v)
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

// Get handles GET /api/sites/{id}
func (h *SiteHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	view, err := h.service.GetSite(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toSiteResponse(view))
}

// Create handles POST /api/sites
func (h *SiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req CreateSiteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.service.CreateSite(r.Context(), uid, services.CreateSiteInput{
		Pattern:    req.Pattern,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, toSiteResponse(view))
}

// Update handles PUT /api/sites/{id}. Setting active=false on an active site
// requires a completed unlock cooldown.
func (h *SiteHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req UpdateSiteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.service.UpdateSite(r.Context(), uid, chi.URLParam(r, "id"), services.UpdateSiteInput{
		Pattern:    req.Pattern,
		IsActive:   req.Active,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toSiteResponse(view))
}

// RequestUnlock handles POST /api/sites/{id}/request-unlock
func (h *SiteHandler) RequestUnlock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.RequestUnlock)
}

// CancelUnlock handles POST /api/sites/{id}/cancel-unlock
func (h *SiteHandler) CancelUnlock(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelUnlock)
}

func (h *SiteHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	step func(ctx context.Context, userID, id string) (*services.SiteView, error),
) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	view, err := step(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toSiteResponse(view))
}

// Delete handles DELETE /api/sites/{id}
func (h *SiteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteSite(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Attempt handles POST /api/sites/attempt, the server-side navigation check.
func (h *SiteHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req CheckURLRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.service.CheckURL(r.Context(), uid, req.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	matched := res.Matched
	if matched == nil {
		matched = []string{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, CheckURLResponse{Host: res.Host, Blocked: res.Blocked, Matched: matched})
}
