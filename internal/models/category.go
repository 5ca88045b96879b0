package models

import "time"

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6B7280"

type Category struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	CreatedAt time.Time
}
