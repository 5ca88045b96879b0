package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWindowService_CreateWindow(t *testing.T) {
	var got *models.TimeWindow
	repo := &MockWindowRepository{
		CreateFunc: func(ctx context.Context, userID string, w *models.TimeWindow) (*models.TimeWindow, error) {
			assert.Equal(t, "user-1", userID)
			got = w
			created := *w
			created.ID = "w1"
			return &created, nil
		},
	}
	svc := NewWindowService(repo, discardLogger())

	saturday := 6
	w, err := svc.CreateWindow(context.Background(), "user-1", CreateWindowInput{
		SiteID:    "site-1",
		DayOfWeek: &saturday,
		StartTime: "19:00",
		EndTime:   "21:00:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "w1", w.ID)
	assert.Equal(t, "site-1", got.SiteID)
	assert.Equal(t, "19:00:00", got.Start.String())
	assert.Equal(t, "21:00:30", got.End.String())
	assert.Equal(t, 6, *got.DayOfWeek)
}

func TestWindowService_CreateWindowValidation(t *testing.T) {
	repo := &MockWindowRepository{
		CreateFunc: func(ctx context.Context, userID string, w *models.TimeWindow) (*models.TimeWindow, error) {
			t.Fatal("invalid window reached the repository")
			return nil, nil
		},
	}
	svc := NewWindowService(repo, discardLogger())

	seven := 7
	tests := []struct {
		name  string
		input CreateWindowInput
		field string
	}{
		{"bad day", CreateWindowInput{DayOfWeek: &seven, StartTime: "10:00", EndTime: "11:00"}, "day_of_week"},
		{"bad start", CreateWindowInput{StartTime: "25:00", EndTime: "11:00"}, "start_time"},
		{"bad end", CreateWindowInput{StartTime: "10:00", EndTime: "noon"}, "end_time"},
		{"reversed", CreateWindowInput{StartTime: "22:00", EndTime: "02:00"}, "end_time"},
		{"empty", CreateWindowInput{StartTime: "10:00", EndTime: "10:00"}, "end_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateWindow(context.Background(), "user-1", tt.input)
			var ve *policy.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestWindowService_CreateWindowForeignSite(t *testing.T) {
	repo := &MockWindowRepository{
		CreateFunc: func(ctx context.Context, userID string, w *models.TimeWindow) (*models.TimeWindow, error) {
			return nil, models.ErrNotFound
		},
	}
	svc := NewWindowService(repo, discardLogger())

	_, err := svc.CreateWindow(context.Background(), "user-1", CreateWindowInput{SiteID: "other", StartTime: "10:00", EndTime: "11:00"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWindowService_DeleteWindow(t *testing.T) {
	svc := NewWindowService(&MockWindowRepository{}, discardLogger())
	assert.NoError(t, svc.DeleteWindow(context.Background(), "user-1", "w1"))

	svc = NewWindowService(&MockWindowRepository{
		DeleteFunc: func(ctx context.Context, userID, id string) error { return errors.New("boom") },
	}, discardLogger())
	assert.ErrorIs(t, svc.DeleteWindow(context.Background(), "user-1", "w1"), models.ErrInternalServer)
}
