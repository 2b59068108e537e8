// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dobalito/api/internal/platform/apperr"
	"github.com/dobalito/api/internal/platform/validate"
	"github.com/dobalito/api/internal/users/auth"
	"github.com/dobalito/api/pkg/pagination"
	"github.com/dobalito/api/pkg/uuid"
)

// # Service Layer

// Service orchestrates business logic for user profiles and avatars.
type Service struct {
	accountRepository AccountRepository
	avatarStorage     AvatarStorage
	categories        CategoryChecker
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accountRepo AccountRepository, avatars AvatarStorage, categories CategoryChecker, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		avatarStorage:     avatars,
		categories:        categories,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves the full identity of a user.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - *auth.User: The hydrated user profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID int64) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	Name  *string
	Email *string
}

/*
UpdateProfile applies a partial set of changes to a user's profile.

Description: Fetches the existing user state, overrides provided fields, and
synchronizes the change to persistent storage. Emails are stored lower-cased.

Parameters:
  - context: context.Context
  - userID: int64
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Conflict when the email belongs to someone else, or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID int64, input UpdateProfileInput) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		user.Email = &email
	}

	if err := service.accountRepository.UpdateProfile(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_profile_updated", slog.Int64("user_id", userID))

	return user, nil
}

// # Executor Directory

// ListExecutors pages through every member, ordered by name.
func (service *Service) ListExecutors(context context.Context, page pagination.Params) ([]*auth.User, int, error) {
	users, total, err := service.accountRepository.List(context, UserQuery{Page: page})
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_executors_failed: %w", err)
	}
	return users, total, nil
}

/*
ListByCategory pages through the members who work in a category.

Returns:
  - []*auth.User: The requested page
  - int: Total matches
  - error: NotFound (404) for an unknown category, or storage failures
*/
func (service *Service) ListByCategory(context context.Context, categoryID int64, page pagination.Params) ([]*auth.User, int, error) {
	exists, err := service.categories.Exists(context, categoryID)
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_category_lookup_failed: %w", err)
	}
	if !exists {
		return nil, 0, apperr.NotFound("Category")
	}

	users, total, err := service.accountRepository.List(context, UserQuery{CategoryID: categoryID, Page: page})
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_list_by_category_failed: %w", err)
	}
	return users, total, nil
}

// Search matches term against member names and emails, case-insensitively.
func (service *Service) Search(context context.Context, term string, page pagination.Params) ([]*auth.User, int, error) {
	term = strings.TrimSpace(term)

	validator := &validate.Validator{}
	validator.Required(FieldSearch, term).MaxLen(FieldSearch, term, MaxSearchLength)
	if err := validator.Err(); err != nil {
		return nil, 0, err
	}

	users, total, err := service.accountRepository.List(context, UserQuery{Search: term, Page: page})
	if err != nil {
		return nil, 0, fmt.Errorf("account_service_search_failed: %w", err)
	}
	return users, total, nil
}

// Specializations returns the categories a member works in.
func (service *Service) Specializations(context context.Context, userID int64) ([]Specialization, error) {
	if _, err := service.accountRepository.FindByID(context, userID); err != nil {
		return nil, fmt.Errorf("account_service_specializations_lookup_failed: %w", err)
	}

	specializations, err := service.accountRepository.Specializations(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_specializations_failed: %w", err)
	}
	return specializations, nil
}

/*
SetSpecializations replaces the categories a member works in.

Description: Duplicate IDs are collapsed. Every ID must name a stored
category; an empty list clears the set.

Parameters:
  - context: context.Context
  - userID: int64
  - categoryIDs: []int64

Returns:
  - []Specialization: The stored set, ordered by name
  - error: Validation (400) for unknown or too many categories, or storage failures
*/
func (service *Service) SetSpecializations(context context.Context, userID int64, categoryIDs []int64) ([]Specialization, error) {
	unique := make([]int64, 0, len(categoryIDs))
	seen := make(map[int64]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	if len(unique) > MaxSpecializations {
		return nil, validate.RequiredError(FieldCategoryIDs, fmt.Sprintf("At most %d categories", MaxSpecializations))
	}

	for _, id := range unique {
		exists, err := service.categories.Exists(context, id)
		if err != nil {
			return nil, fmt.Errorf("account_service_category_lookup_failed: %w", err)
		}
		if !exists {
			return nil, validate.RequiredError(FieldCategoryIDs, fmt.Sprintf("Category %d does not exist", id))
		}
	}

	if _, err := service.accountRepository.FindByID(context, userID); err != nil {
		return nil, fmt.Errorf("account_service_specializations_lookup_failed: %w", err)
	}

	if err := service.accountRepository.ReplaceSpecializations(context, userID, unique); err != nil {
		return nil, fmt.Errorf("account_service_set_specializations_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_specializations_updated",
		slog.Int64("user_id", userID),
		slog.Int("categories", len(unique)),
	)

	return service.Specializations(context, userID)
}

// # Avatar Management

/*
UploadAvatar stores a new avatar image and points the profile at it.

Description: The image type is sniffed from the content, never taken from the
client. The file is saved as '<uuid><ext>' and the previous avatar file, if
any, is removed afterwards.

Parameters:
  - context: context.Context
  - userID: int64
  - content: io.Reader (the raw upload)

Returns:
  - string: Public URL of the new avatar
  - error: Validation for oversized or non-image content, or storage failures
*/
func (service *Service) UploadAvatar(context context.Context, userID int64, content io.Reader) (string, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return "", fmt.Errorf("account_service_avatar_lookup_failed: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxAvatarSize+1))
	if err != nil {
		return "", apperr.ValidationError("Could not read the uploaded file").WithCause(err)
	}
	if len(data) == 0 {
		return "", apperr.ValidationError("File is empty")
	}
	if len(data) > MaxAvatarSize {
		return "", apperr.ValidationError("File must not exceed 5 MB")
	}

	extension, ok := avatarExtensions[http.DetectContentType(data)]
	if !ok {
		return "", apperr.ValidationError("Only JPEG, PNG, GIF or WebP images are allowed")
	}

	filename := uuid.New() + extension
	if err := service.avatarStorage.Save(context, filename, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("account_service_avatar_save_failed: %w", err)
	}

	avatarURL := AvatarURLPrefix + filename
	if err := service.accountRepository.UpdateAvatar(context, userID, &avatarURL); err != nil {
		_ = service.avatarStorage.Delete(context, filename)
		return "", fmt.Errorf("account_service_avatar_update_failed: %w", err)
	}

	service.removeAvatarFile(context, user.Avatar)
	service.logger.InfoContext(context, "user_avatar_uploaded",
		slog.Int64("user_id", userID),
		slog.String("file", filename),
	)

	return avatarURL, nil
}

/*
DeleteAvatar clears the profile avatar and removes its file.

Parameters:
  - context: context.Context
  - userID: int64

Returns:
  - error: NotFound when the user has no avatar, or storage failures
*/
func (service *Service) DeleteAvatar(context context.Context, userID int64) error {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return fmt.Errorf("account_service_avatar_lookup_failed: %w", err)
	}
	if user.Avatar == nil {
		return apperr.NotFound("Avatar")
	}

	if err := service.accountRepository.UpdateAvatar(context, userID, nil); err != nil {
		return fmt.Errorf("account_service_avatar_clear_failed: %w", err)
	}

	service.removeAvatarFile(context, user.Avatar)
	return nil
}

/*
OpenAvatar returns a stored avatar file for serving.

Parameters:
  - context: context.Context
  - filename: string ('<uuid><ext>')

Returns:
  - io.ReadSeekCloser: The file content
  - time.Time: Modification time for conditional requests
  - error: NotFound for unknown or malformed names
*/
func (service *Service) OpenAvatar(context context.Context, filename string) (io.ReadSeekCloser, time.Time, error) {
	if !isAvatarFilename(filename) {
		return nil, time.Time{}, apperr.NotFound("Avatar")
	}
	return service.avatarStorage.Open(context, filename)
}

func (service *Service) removeAvatarFile(context context.Context, avatarURL *string) {
	if avatarURL == nil {
		return
	}
	filename, ok := strings.CutPrefix(*avatarURL, AvatarURLPrefix)
	if !ok || !isAvatarFilename(filename) {
		return
	}
	if err := service.avatarStorage.Delete(context, filename); err != nil {
		service.logger.WarnContext(context, "user_avatar_cleanup_failed", slog.Any("error", err))
	}
}

// isAvatarFilename accepts only names this service generates.
func isAvatarFilename(filename string) bool {
	for _, extension := range avatarExtensions {
		if stem, ok := strings.CutSuffix(filename, extension); ok {
			return uuid.IsValid(stem)
		}
	}
	return false
}
