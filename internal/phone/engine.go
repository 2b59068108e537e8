// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// lockWait bounds how long a request waits behind another issuance for the same phone.
const lockWait = 3 * time.Second

// Engine issues and verifies one-time codes.
//
// # Concurrency
//
// Engine is safe for concurrent use. Issuance is serialized per phone by the
// [Locker]; verification relies on the atomic IncrementAttempts and MarkUsed
// operations of the [CodeStore].
type Engine struct {
	store    CodeStore
	locker   Locker
	logger   *slog.Logger
	now      func() time.Time
	generate func() (string, error)
}

// Option customizes an [Engine].
type Option func(*Engine)

// WithClock replaces the wall clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(engine *Engine) { engine.now = now }
}

// WithGenerator replaces the random code generator. Used by tests.
func WithGenerator(generate func() (string, error)) Option {
	return func(engine *Engine) { engine.generate = generate }
}

// NewEngine constructs an [Engine] over store, serializing issuance with locker.
func NewEngine(store CodeStore, locker Locker, logger *slog.Logger, options ...Option) *Engine {
	engine := &Engine{
		store:    store,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
		generate: GenerateCode,
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// # Issuance

/*
RequestCode issues a fresh code for phone.

Description: Refuses when MaxCodesPerWindow codes were already issued in the
trailing RateWindow. Otherwise every unused earlier code is invalidated and a
new code valid for CodeTTL is stored. Sending the code is the caller's job.

Parameters:
  - context: context.Context
  - phone: string (normalized or raw; it is normalized again)

Returns:
  - *VerificationCode: The stored record, including the plain code
  - error: ErrInvalidPhoneFormat, ErrRateLimitExceeded, ErrIssueInProgress or ErrStorage
*/
func (engine *Engine) RequestCode(context context.Context, phone string) (*VerificationCode, error) {
	phone = NormalizePhone(phone)
	if !IsValidPhoneFormat(phone) {
		return nil, ErrInvalidPhoneFormat
	}

	release, err := engine.lock(context, phone)
	if err != nil {
		return nil, err
	}
	defer release()

	now := engine.now()

	// 1. Hourly ceiling
	issued, err := engine.store.CountIssuedSince(context, phone, now.Add(-RateWindow))
	if err != nil {
		return nil, err
	}
	if issued >= MaxCodesPerWindow {
		engine.logger.WarnContext(context, "verification_code_rate_limited",
			slog.String("phone", maskPhone(phone)),
			slog.Int("issued_in_window", issued),
		)
		return nil, ErrRateLimitExceeded
	}

	// 2. Supersede older codes
	invalidated, err := engine.store.InvalidateUnused(context, phone)
	if err != nil {
		return nil, err
	}

	// 3. Generate and persist
	value, err := engine.generate()
	if err != nil {
		return nil, err
	}

	saved, err := engine.store.Save(context, &VerificationCode{
		Phone:     phone,
		Code:      value,
		CreatedAt: now,
		ExpiresAt: now.Add(CodeTTL),
	})
	if err != nil {
		return nil, err
	}

	engine.logger.InfoContext(context, "verification_code_issued",
		slog.String("phone", maskPhone(phone)),
		slog.Int64("code_id", saved.ID),
		slog.Int64("superseded", invalidated),
		slog.Time("expires_at", saved.ExpiresAt),
	)

	return saved, nil
}

func (engine *Engine) lock(parent context.Context, phone string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(parent, lockWait)
	defer cancel()

	release, err := engine.locker.Lock(waitCtx, phone)
	if err == nil {
		return release, nil
	}

	// Our own wait budget ran out while the caller is still waiting.
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return nil, ErrIssueInProgress
	}
	if errors.Is(err, ErrStorage) {
		return nil, err
	}
	return nil, fmt.Errorf("phone_engine_lock_failed: %w", err)
}

// # Verification

/*
VerifyCode redeems code for phone.

Description: A matching unused, unexpired code below MaxAttempts is consumed
exactly once. Every failure against an existing code costs one attempt: a
wrong guess is charged to the phone's newest active code, and a correct guess
on an exhausted code is charged to that code. Callers cannot tell whether the
phone had a code at all.

Returns:
  - *VerificationCode: The consumed record
  - error: ErrInvalidOrExpiredCode or ErrStorage
*/
func (engine *Engine) VerifyCode(context context.Context, phone, code string) (*VerificationCode, error) {
	phone = NormalizePhone(phone)
	if phone == "" || code == "" {
		return nil, ErrInvalidOrExpiredCode
	}

	now := engine.now()

	match, err := engine.store.FindByPhoneAndCode(context, phone, code, now)
	if errors.Is(err, ErrCodeNotFound) {
		if err := engine.chargeActive(context, phone, now); err != nil {
			return nil, err
		}
		engine.reject(context, phone, "no_match")
		return nil, ErrInvalidOrExpiredCode
	}
	if err != nil {
		return nil, err
	}

	if match.Attempts >= MaxAttempts {
		if err := engine.store.IncrementAttempts(context, match.ID); err != nil && !errors.Is(err, ErrCodeNotFound) {
			return nil, err
		}
		engine.reject(context, phone, "attempts_exhausted")
		return nil, ErrInvalidOrExpiredCode
	}

	consumed, err := engine.store.MarkUsed(context, match.ID, now)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// Lost a race with a concurrent verification of the same code.
		engine.reject(context, phone, "already_consumed")
		return nil, ErrInvalidOrExpiredCode
	}

	match.Used = true
	engine.logger.InfoContext(context, "verification_code_accepted",
		slog.String("phone", maskPhone(phone)),
		slog.Int64("code_id", match.ID),
	)

	return match, nil
}

// chargeActive costs the phone's live code one attempt, if it has one.
func (engine *Engine) chargeActive(context context.Context, phone string, now time.Time) error {
	active, err := engine.store.FindActiveByPhone(context, phone, now)
	if errors.Is(err, ErrCodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := engine.store.IncrementAttempts(context, active.ID); err != nil && !errors.Is(err, ErrCodeNotFound) {
		return err
	}
	return nil
}

func (engine *Engine) reject(context context.Context, phone, reason string) {
	engine.logger.WarnContext(context, "verification_code_rejected",
		slog.String("phone", maskPhone(phone)),
		slog.String("reason", reason),
	)
}

// # Inspection

// HasActiveCode reports whether phone has a redeemable code right now.
func (engine *Engine) HasActiveCode(context context.Context, phone string) (bool, error) {
	_, err := engine.GetActiveCode(context, phone)
	if errors.Is(err, ErrCodeNotFound) {
		return false, nil
	}
	return err == nil, err
}

// GetActiveCode returns the newest redeemable code for phone, or [ErrCodeNotFound].
func (engine *Engine) GetActiveCode(context context.Context, phone string) (*VerificationCode, error) {
	return engine.store.FindActiveByPhone(context, NormalizePhone(phone), engine.now())
}

// History returns every stored code for phone, newest first.
func (engine *Engine) History(context context.Context, phone string) ([]*VerificationCode, error) {
	return engine.store.FindAllByPhone(context, NormalizePhone(phone))
}

// # Housekeeping

// CleanupExpired deletes every code whose expiry has passed.
func (engine *Engine) CleanupExpired(context context.Context) (int64, error) {
	deleted, err := engine.store.DeleteExpired(context, engine.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		engine.logger.InfoContext(context, "verification_codes_purged", slog.Int64("deleted", deleted))
	}
	return deleted, nil
}

// RunCleanup calls [Engine.CleanupExpired] every interval until context is done.
// Failures are logged and retried on the next tick.
func (engine *Engine) RunCleanup(context context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := engine.CleanupExpired(context); err != nil {
				engine.logger.ErrorContext(context, "verification_code_cleanup_failed", slog.Any("error", err))
			}
		case <-context.Done():
			return
		}
	}
}

// maskPhone keeps only the last four digits for logs.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
