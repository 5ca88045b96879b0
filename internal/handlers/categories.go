package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/internal/services"
	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
)

// CategoryServiceInterface defines the category business logic
type CategoryServiceInterface interface {
	ListCategories(ctx context.Context, userID string) ([]*models.Category, error)
	CreateCategory(ctx context.Context, userID string, in services.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, id string, in services.CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error
}

type CategoryHandler struct {
	service CategoryServiceInterface
}

func NewCategoryHandler(service CategoryServiceInterface) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	categories, err := h.service.ListCategories(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = toCategoryResponse(c)
	}
	pkghttp.WriteJSON(w, http.StatusOK, out)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.service.CreateCategory(r.Context(), uid, services.CategoryInput{Name: req.Name, Color: req.Color})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req CategoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), uid, chi.URLParam(r, "id"), services.CategoryInput{Name: req.Name, Color: req.Color})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, toCategoryResponse(c))
}

// Delete leaves the category's sites in place without a category.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
