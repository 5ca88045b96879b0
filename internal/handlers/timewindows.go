package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/internal/services"
	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
)

// WindowServiceInterface defines the time window business logic
type WindowServiceInterface interface {
	CreateWindow(ctx context.Context, userID string, in services.CreateWindowInput) (*models.TimeWindow, error)
	DeleteWindow(ctx context.Context, userID, id string) error
}

// WindowHandler serves /api/time-windows
type WindowHandler struct {
	service WindowServiceInterface
}

func NewWindowHandler(service WindowServiceInterface) *WindowHandler {
	return &WindowHandler{service: service}
}

// Create handles POST /api/time-windows
func (h *WindowHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req CreateWindowRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	window, err := h.service.CreateWindow(r.Context(), uid, services.CreateWindowInput{
		SiteID:    req.SiteID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, toWindowResponse(*window))
}

// Delete handles DELETE /api/time-windows/{id}
func (h *WindowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteWindow(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
