package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/internal/services"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

func TestWindowHandler_Create(t *testing.T) {
	h := NewWindowHandler(&MockWindowService{
		CreateWindowFunc: func(ctx context.Context, userID string, in services.CreateWindowInput) (*models.TimeWindow, error) {
			assert.Equal(t, testSiteID, in.SiteID)
			assert.Equal(t, 6, *in.DayOfWeek)
			start, _ := policy.ParseTimeOfDay(in.StartTime)
			end, _ := policy.ParseTimeOfDay(in.EndTime)
			return &models.TimeWindow{ID: "w1", SiteID: in.SiteID, DayOfWeek: in.DayOfWeek, Start: start, End: end}, nil
		},
	})

	body := map[string]any{"site_id": testSiteID, "day_of_week": 6, "start_time": "19:00", "end_time": "21:00"}
	w := httptest.NewRecorder()
	h.Create(w, WithAuthContext(NewTestRequest(t, http.MethodPost, "/api/time-windows", body), "user-1", ""))

	var out WindowResponse
	AssertJSONResponse(t, w, http.StatusCreated, &out)
	assert.Equal(t, "19:00:00", out.StartTime)
	assert.Equal(t, "21:00:00", out.EndTime)
}

func TestWindowHandler_CreateValidation(t *testing.T) {
	h := NewWindowHandler(&MockWindowService{})

	tests := []struct {
		name string
		body map[string]any
	}{
		{"day out of range", map[string]any{"site_id": testSiteID, "day_of_week": 7, "start_time": "10:00", "end_time": "11:00"}},
		{"bad time", map[string]any{"site_id": testSiteID, "start_time": "9am", "end_time": "11:00"}},
		{"missing site", map[string]any{"start_time": "10:00", "end_time": "11:00"}},
		{"site not a uuid", map[string]any{"site_id": "abc", "start_time": "10:00", "end_time": "11:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Create(w, WithAuthContext(NewTestRequest(t, http.MethodPost, "/api/time-windows", tt.body), "user-1", ""))
			AssertErrorResponse(t, w, http.StatusBadRequest, "validation_failed")
		})
	}
}

func TestWindowHandler_CreateReversedWindow(t *testing.T) {
	h := NewWindowHandler(&MockWindowService{
		CreateWindowFunc: func(ctx context.Context, userID string, in services.CreateWindowInput) (*models.TimeWindow, error) {
			_, err := policy.NewTimeWindow(in.DayOfWeek, in.StartTime, in.EndTime)
			return nil, err
		},
	})

	body := map[string]any{"site_id": testSiteID, "start_time": "22:00", "end_time": "02:00"}
	w := httptest.NewRecorder()
	h.Create(w, WithAuthContext(NewTestRequest(t, http.MethodPost, "/api/time-windows", body), "user-1", ""))

	resp := AssertErrorResponse(t, w, http.StatusBadRequest, "validation_failed")
	assert.Equal(t, "end_time", resp.Details)
}

func TestWindowHandler_Delete(t *testing.T) {
	h := NewWindowHandler(&MockWindowService{
		DeleteWindowFunc: func(ctx context.Context, userID, id string) error {
			if id == "missing" {
				return models.ErrNotFound
			}
			return nil
		},
	})

	w := httptest.NewRecorder()
	h.Delete(w, WithURLParam(WithAuthContext(NewTestRequest(t, http.MethodDelete, "/", nil), "user-1", ""), "id", "w1"))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.Delete(w, WithURLParam(WithAuthContext(NewTestRequest(t, http.MethodDelete, "/", nil), "user-1", ""), "id", "missing"))
	AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
}
