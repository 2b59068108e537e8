// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Lookups return an apperr NotFound error when no row matches.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id int64) (*User, error)

	/*
		FindByPhone returns the account bound to a normalized phone number.

		Parameters:
		  - context: context.Context
		  - phone: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByPhone(context context.Context, phone string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account and fills in its ID and timestamps.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate phone or email, or storage failures
	*/
	Create(context context.Context, user *User) error

	/*
		UpdateName replaces the display name of an account.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - name: string

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	UpdateName(context context.Context, id int64, name string) error
}

// # Volatile Data Access

// RevocationStore remembers session tokens invalidated before their expiry.
type RevocationStore interface {

	/*
		Revoke blacklists token until the given instant.

		Parameters:
		  - context: context.Context
		  - token: string
		  - until: time.Time (the token's own expiry)

		Returns:
		  - error: Persistence failures
	*/
	Revoke(context context.Context, token string, until time.Time) error

	/*
		IsRevoked reports whether token was revoked.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - bool: true when the token must be rejected
		  - error: Retrieval failures
	*/
	IsRevoked(context context.Context, token string) (bool, error)
}
