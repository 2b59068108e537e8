// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package category manages the catalogue of task categories.
package category

import (
	"time"

	"github.com/dobalito/api/internal/platform/apperr"
)

// Field names used in validation errors.
const (
	FieldName        = "name"
	FieldEnglishName = "english_name"
	FieldDescription = "description"
	FieldIcon        = "icon"
	FieldColor       = "color"
)

// ErrCategoryInUse is returned when deleting a category that tasks still reference.
var ErrCategoryInUse = apperr.Conflict("Category is used by existing tasks")

// Column limits.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxIconLength        = 100
)

// Category is a grouping tasks are filed under.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	EnglishName string    `json:"english_name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	Color       *string   `json:"color,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filter narrows a category listing.
type Filter struct {
	ActiveOnly bool
	Search     string
}
