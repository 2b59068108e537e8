// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package phone implements SMS one-time code verification.

It owns the lifecycle of a [VerificationCode]: issuance under a per-phone rate
limit, supersession of older codes, bounded guessing, single-use consumption,
and the periodic purge of expired rows.

# Architecture

  - Engine: The business rules (issue, verify, inspect, cleanup).
  - CodeStore: Persistence contract with PostgreSQL and in-memory implementations.
  - Locker: Serializes issuance per phone so the hourly limit cannot be raced.

Delivery of the code (SMS) is the caller's concern; this package never sends anything.
*/
package phone

import (
	"errors"
	"time"
)

// # Policy

const (
	// CodeLength is the number of decimal digits in a code.
	CodeLength = 6

	// CodeTTL is how long a code stays valid after issuance.
	CodeTTL = 10 * time.Minute

	// MaxAttempts is the number of verification attempts a code tolerates.
	MaxAttempts = 3

	// MaxCodesPerWindow is the issuance ceiling per phone within RateWindow.
	MaxCodesPerWindow = 5

	// RateWindow is the trailing window used by the issuance limit.
	RateWindow = time.Hour
)

// # Errors

var (
	// ErrInvalidPhoneFormat is returned when a phone has fewer than 10 or more than 15 digits.
	ErrInvalidPhoneFormat = errors.New("phone: invalid phone number format")

	// ErrRateLimitExceeded is returned when a phone already received MaxCodesPerWindow codes.
	ErrRateLimitExceeded = errors.New("phone: too many codes requested")

	// ErrIssueInProgress is returned when another request is issuing a code for the same phone.
	ErrIssueInProgress = errors.New("phone: code issuance already in progress")

	// ErrInvalidOrExpiredCode covers every verification failure. It deliberately
	// does not say whether the phone has any code at all.
	ErrInvalidOrExpiredCode = errors.New("phone: invalid or expired code")

	// ErrCodeNotFound is returned by stores when no row matches.
	ErrCodeNotFound = errors.New("phone: code not found")

	// ErrStorage marks failures of the backing store. Callers may retry.
	ErrStorage = errors.New("phone: storage unavailable")
)

// # Domain Entities

// VerificationCode is a single issued one-time code.
type VerificationCode struct {
	ID        int64     `json:"id"`
	Phone     string    `json:"phone"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	Attempts  int       `json:"attempts"`
}

// IsExpired reports whether now is at or past the expiry instant.
func (code *VerificationCode) IsExpired(now time.Time) bool {
	return !now.Before(code.ExpiresAt)
}

// IsActive reports whether the code can still be redeemed at now.
func (code *VerificationCode) IsActive(now time.Time) bool {
	return !code.Used && !code.IsExpired(now) && code.Attempts < MaxAttempts
}

// AttemptsLeft is the number of verification attempts remaining, never negative.
func (code *VerificationCode) AttemptsLeft() int {
	return max(MaxAttempts-code.Attempts, 0)
}
