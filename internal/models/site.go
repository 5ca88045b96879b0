package models

import (
	"time"

	"github.com/dharmateja03/GoodTurkey/pkg/policy"
)

// BlockedSite is a restriction row owned by a user.
type BlockedSite struct {
	ID                string
	UserID            string
	CategoryID        *string
	Pattern           string
	IsActive          bool
	UnlockRequestedAt *time.Time
	AccessAttempts    int64
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Windows []TimeWindow
}

// Lock returns the lifecycle columns of s.
func (s *BlockedSite) Lock() policy.Lock {
	return policy.Lock{Active: s.IsActive, UnlockRequestedAt: s.UnlockRequestedAt}
}

// SetLock copies lock into the lifecycle columns of s.
func (s *BlockedSite) SetLock(lock policy.Lock) {
	s.IsActive = lock.Active
	s.UnlockRequestedAt = lock.UnlockRequestedAt
}

// Restriction converts s and its windows to the policy view.
func (s *BlockedSite) Restriction() policy.Restriction {
	windows := make([]policy.TimeWindow, 0, len(s.Windows))
	for _, w := range s.Windows {
		windows = append(windows, w.Policy())
	}
	return policy.Restriction{
		ID:                s.ID,
		Pattern:           s.Pattern,
		Active:            s.IsActive,
		UnlockRequestedAt: s.UnlockRequestedAt,
		Windows:           windows,
	}
}

// TimeWindow is an allowed interval attached to a blocked site. DayOfWeek is
// 0 (Sunday) through 6, or nil for every day.
type TimeWindow struct {
	ID        string
	SiteID    string
	DayOfWeek *int
	Start     policy.TimeOfDay
	End       policy.TimeOfDay
	CreatedAt time.Time
}

func (w TimeWindow) Policy() policy.TimeWindow {
	out := policy.TimeWindow{ID: w.ID, Start: w.Start, End: w.End}
	if w.DayOfWeek != nil {
		d := time.Weekday(*w.DayOfWeek)
		out.Day = &d
	}
	return out
}
