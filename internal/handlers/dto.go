package handlers

import (
	"time"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/internal/services"
)

// Request DTOs

type CreateSiteRequest struct {
	Pattern    string  `json:"pattern" validate:"required,max=500"`
	CategoryID *string `json:"category_id" validate:"omitempty,uuid"`
}

// UpdateSiteRequest is a partial update; absent fields are left alone. An
// empty category_id removes the category.
type UpdateSiteRequest struct {
	Pattern    *string `json:"pattern" validate:"omitempty,max=500"`
	CategoryID *string `json:"category_id" validate:"omitempty,uuid|len=0"`
	Active     *bool   `json:"active"`
}

type CheckURLRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

type CreateWindowRequest struct {
	SiteID    string `json:"site_id" validate:"required,uuid"`
	DayOfWeek *int   `json:"day_of_week" validate:"omitempty,gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required,timeofday"`
	EndTime   string `json:"end_time" validate:"required,timeofday"`
}

type CategoryRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"max=100"`
}

// Response DTOs

type StatusResponse struct {
	Active            bool       `json:"active"`
	Phase             string     `json:"phase"`
	UnlockRequestedAt *time.Time `json:"unlock_requested_at"`
	UnlockReady       bool       `json:"unlock_ready"`
	RemainingMs       *int64     `json:"remaining_ms"`
}

type WindowResponse struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	DayOfWeek *int      `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
}

type SiteResponse struct {
	ID             string           `json:"id"`
	Pattern        string           `json:"pattern"`
	CategoryID     *string          `json:"category_id"`
	AccessAttempts int64            `json:"access_attempts"`
	Status         StatusResponse   `json:"status"`
	Windows        []WindowResponse `json:"windows"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type CheckURLResponse struct {
	Host    string   `json:"host"`
	Blocked bool     `json:"blocked"`
	Matched []string `json:"matched"`
}

type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

func toWindowResponse(w models.TimeWindow) WindowResponse {
	return WindowResponse{
		ID:        w.ID,
		SiteID:    w.SiteID,
		DayOfWeek: w.DayOfWeek,
		StartTime: w.Start.String(),
		EndTime:   w.End.String(),
		CreatedAt: w.CreatedAt,
	}
}

func toSiteResponse(v *services.SiteView) SiteResponse {
	site := v.Site
	windows := make([]WindowResponse, 0, len(site.Windows))
	for _, w := range site.Windows {
		windows = append(windows, toWindowResponse(w))
	}

	return SiteResponse{
		ID:             site.ID,
		Pattern:        site.Pattern,
		CategoryID:     site.CategoryID,
		AccessAttempts: site.AccessAttempts,
		Status: StatusResponse{
			Active:            v.Status.Active,
			Phase:             v.Phase.String(),
			UnlockRequestedAt: v.Status.UnlockRequestedAt,
			UnlockReady:       v.Status.Ready,
			RemainingMs:       v.Status.RemainingMs(),
		},
		Windows:   windows,
		CreatedAt: site.CreatedAt,
		UpdatedAt: site.UpdatedAt,
	}
}

func toCategoryResponse(c *models.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, Color: c.Color, CreatedAt: c.CreatedAt}
}
