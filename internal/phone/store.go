// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone

import (
	"context"
	"time"
)

// # Code Data Access

// CodeStore defines the persistence contract for verification codes.
//
// Lookups that match nothing return [ErrCodeNotFound]. Backend failures wrap
// [ErrStorage]. IncrementAttempts and MarkUsed must be atomic per row so that
// concurrent verifications neither lose attempts nor consume a code twice.
type CodeStore interface {

	/*
		Save inserts a new code (ID == 0) or updates an existing one.

		Returns:
		  - *VerificationCode: The persisted record with its ID populated
		  - error: ErrStorage on backend failure
	*/
	Save(context context.Context, code *VerificationCode) (*VerificationCode, error)

	/*
		FindActiveByPhone returns the newest code that is unused, unexpired at now,
		and below MaxAttempts.
	*/
	FindActiveByPhone(context context.Context, phone string, now time.Time) (*VerificationCode, error)

	/*
		FindByPhoneAndCode returns the newest unused, unexpired code matching both
		phone and code, regardless of its attempt count.
	*/
	FindByPhoneAndCode(context context.Context, phone, code string, now time.Time) (*VerificationCode, error)

	// FindAllByPhone returns every code for phone, newest first.
	FindAllByPhone(context context.Context, phone string) ([]*VerificationCode, error)

	// CountIssuedSince counts codes for phone created strictly after since.
	CountIssuedSince(context context.Context, phone string, since time.Time) (int, error)

	// IncrementAttempts adds one to the attempt counter of the code.
	IncrementAttempts(context context.Context, id int64) error

	/*
		MarkUsed consumes the code if, at now, it is still unused, unexpired and
		below MaxAttempts.

		Returns:
		  - bool: true if this call consumed the code
	*/
	MarkUsed(context context.Context, id int64, now time.Time) (bool, error)

	// InvalidateUnused marks every unused code for phone as used.
	InvalidateUnused(context context.Context, phone string) (int64, error)

	// DeleteExpired removes codes whose expiry is before now.
	DeleteExpired(context context.Context, now time.Time) (int64, error)
}
