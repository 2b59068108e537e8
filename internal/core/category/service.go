// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dobalito/api/internal/platform/apperr"
	"github.com/dobalito/api/internal/platform/validate"
	"github.com/dobalito/api/pkg/slug"
)

// fallbackSlug is used when neither name yields ASCII characters.
const fallbackSlug = "category"

// Service handles category business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a new category [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateInput is the payload for creating a category.
type CreateInput struct {
	Name        string  `json:"name"`
	EnglishName string  `json:"english_name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
}

// UpdateInput carries the fields to change. Nil fields are left as they are.
type UpdateInput struct {
	Name        *string `json:"name"`
	EnglishName *string `json:"english_name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
}

// List returns categories ordered by name.
func (service *Service) List(context context.Context, filter Filter) ([]*Category, error) {
	return service.repo.List(context, filter)
}

// Get returns a single category.
func (service *Service) Get(context context.Context, id int64) (*Category, error) {
	return service.repo.FindByID(context, id)
}

// Exists reports whether a category with id is stored.
func (service *Service) Exists(context context.Context, id int64) (bool, error) {
	_, err := service.repo.FindByID(context, id)
	if apperr.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

/*
Create validates and stores a new, active category.

Returns:
  - *Category: The stored category
  - error: Validation, Conflict (duplicate name) or Storage errors
*/
func (service *Service) Create(context context.Context, input CreateInput) (*Category, error) {
	category := &Category{
		Name:        strings.TrimSpace(input.Name),
		EnglishName: strings.TrimSpace(input.EnglishName),
		Description: trimmed(input.Description),
		Icon:        trimmed(input.Icon),
		Color:       trimmed(input.Color),
		IsActive:    true,
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	category.Slug = slugFor(category)

	if err := service.repo.Create(context, category); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "category_created",
		slog.Int64("category_id", category.ID),
		slog.String("slug", category.Slug),
	)
	return category, nil
}

// Update applies input to the category with id.
func (service *Service) Update(context context.Context, id int64, input UpdateInput) (*Category, error) {
	category, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		category.Name = strings.TrimSpace(*input.Name)
	}
	if input.EnglishName != nil {
		category.EnglishName = strings.TrimSpace(*input.EnglishName)
	}
	if input.Description != nil {
		category.Description = trimmed(input.Description)
	}
	if input.Icon != nil {
		category.Icon = trimmed(input.Icon)
	}
	if input.Color != nil {
		category.Color = trimmed(input.Color)
	}

	if err := validateCategory(category); err != nil {
		return nil, err
	}
	category.Slug = slugFor(category)

	if err := service.repo.Update(context, category); err != nil {
		return nil, err
	}
	return category, nil
}

// SetActive shows or hides a category from active listings.
func (service *Service) SetActive(context context.Context, id int64, active bool) (*Category, error) {
	if err := service.repo.SetActive(context, id, active); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "category_visibility_changed",
		slog.Int64("category_id", id),
		slog.Bool("active", active),
	)
	return service.repo.FindByID(context, id)
}

// Delete removes a category. Categories still referenced by tasks cannot be deleted.
func (service *Service) Delete(context context.Context, id int64) error {
	if err := service.repo.Delete(context, id); err != nil {
		return err
	}
	service.logger.InfoContext(context, "category_deleted", slog.Int64("category_id", id))
	return nil
}

func validateCategory(category *Category) error {
	v := &validate.Validator{}
	v.Required(FieldName, category.Name).MaxLen(FieldName, category.Name, MaxNameLength)
	v.Required(FieldEnglishName, category.EnglishName).MaxLen(FieldEnglishName, category.EnglishName, MaxNameLength)
	if category.Description != nil {
		v.MaxLen(FieldDescription, *category.Description, MaxDescriptionLength)
	}
	if category.Icon != nil {
		v.MaxLen(FieldIcon, *category.Icon, MaxIconLength)
	}
	if category.Color != nil {
		v.HexColor(FieldColor, *category.Color)
	}
	return v.Err()
}

// slugFor prefers the English name since slugs are ASCII only.
func slugFor(category *Category) string {
	if s := slug.From(category.EnglishName); s != "" {
		return s
	}
	if s := slug.From(category.Name); s != "" {
		return s
	}
	return fallbackSlug
}

// trimmed returns nil for blank values.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return nil
	}
	return &s
}
