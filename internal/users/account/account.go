// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles user profiles, avatars and the executor directory.

It lets users view and update their own identity data, pick the categories
they work in, look up other members, and upload an avatar image that is
served back from local storage.

# Architecture

  - Domain: This package depends on the auth package for the User entity.
  - Storage: Profile rows and specializations live in PostgreSQL; avatar bytes live in [AvatarStorage].
*/
package account

import (
	"context"
	"io"
	"time"

	"github.com/dobalito/api/internal/users/auth"
	"github.com/dobalito/api/pkg/pagination"
)

// # Avatar Constraints

const (
	// MaxAvatarSize is the largest accepted avatar upload.
	MaxAvatarSize = 5 << 20

	// AvatarURLPrefix is prepended to stored avatar filenames.
	AvatarURLPrefix = "/api/v1/users/avatar/"

	// AvatarCacheControl is sent with served avatars.
	AvatarCacheControl = "public, max-age=3600"
)

// # Directory

const (
	// MaxSpecializations bounds how many categories one executor can list.
	MaxSpecializations = 20

	// MaxSearchLength bounds the directory search term.
	MaxSearchLength = 100

	// FieldCategoryIDs is the request field carrying specializations.
	FieldCategoryIDs = "category_ids"

	// FieldSearch is the directory search query parameter.
	FieldSearch = "q"
)

// Specialization is a category an executor works in.
type Specialization struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
	Slug        string `json:"slug"`
}

// UserQuery narrows a directory listing. Zero values do not filter.
type UserQuery struct {
	CategoryID int64
	Search     string
	Page       pagination.Params
}

// avatarExtensions maps sniffed image MIME types to stored file extensions.
var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// # Repository Contracts

// AccountRepository defines the persistence contract for user profiles.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*auth.User, error)

	/*
		UpdateProfile modifies the name and email of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (Hydrated entity with changes)

		Returns:
		  - error: apperr.Conflict when the email is taken, or storage failures
	*/
	UpdateProfile(context context.Context, user *auth.User) error

	/*
		UpdateAvatar replaces the avatar URL; nil clears it.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - avatar: *string

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	UpdateAvatar(context context.Context, id int64, avatar *string) error

	// List returns one page of users ordered by name, plus the total match count.
	List(context context.Context, query UserQuery) ([]*auth.User, int, error)

	// Specializations returns the categories of a user ordered by name.
	Specializations(context context.Context, userID int64) ([]Specialization, error)

	/*
		ReplaceSpecializations swaps the full category set of a user atomically.

		Parameters:
		  - context: context.Context
		  - userID: int64
		  - categoryIDs: []int64 (deduplicated; empty clears the set)

		Returns:
		  - error: apperr.Unprocessable for unknown categories, or storage failures
	*/
	ReplaceSpecializations(context context.Context, userID int64, categoryIDs []int64) error
}

// CategoryChecker confirms that a category exists. [*category.Service] implements it.
type CategoryChecker interface {
	Exists(context context.Context, id int64) (bool, error)
}

// AvatarStorage stores avatar files by name.
type AvatarStorage interface {
	// Save writes content under name, replacing any existing file.
	Save(context context.Context, name string, content io.Reader) error

	// Open returns the stored file and its modification time, or apperr.NotFound.
	Open(context context.Context, name string) (io.ReadSeekCloser, time.Time, error)

	// Delete removes name. Deleting a missing file is not an error.
	Delete(context context.Context, name string) error
}
