package handlers

import (
	"context"
	"net/http"

	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// SyncServiceInterface builds the agent projection
type SyncServiceInterface interface {
	Snapshot(ctx context.Context, userID string) (*policy.Snapshot, error)
}

type SyncHandler struct {
	service SyncServiceInterface
}

func NewSyncHandler(service SyncServiceInterface) *SyncHandler {
	return &SyncHandler{service: service}
}

// Get handles GET /api/sync
func (h *SyncHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	snap, err := h.service.Snapshot(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	pkghttp.WriteJSON(w, http.StatusOK, snap)
}
