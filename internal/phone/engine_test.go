// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dobalito/api/internal/phone"
)

const testPhone = "15550102030"

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.current
}

func (clock *fakeClock) Advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.current = clock.current.Add(d)
}

// sequenceGenerator hands out 100001, 100002, ... so tests know every code.
func sequenceGenerator() func() (string, error) {
	var mu sync.Mutex
	next := 100000
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("%06d", next), nil
	}
}

type fixture struct {
	engine *phone.Engine
	store  *phone.MemoryStore
	clock  *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{current: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	store := phone.NewMemoryStore()
	engine := phone.NewEngine(store, phone.NewLocalLocker(), slog.New(slog.NewTextHandler(io.Discard, nil)),
		phone.WithClock(clock.Now),
		phone.WithGenerator(sequenceGenerator()),
	)
	return &fixture{engine: engine, store: store, clock: clock}
}

/*
TestEngine_IssuedCodeIsActive verifies a fresh code is immediately active.
*/
func TestEngine_IssuedCodeIsActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.engine.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	assert.Equal(t, testPhone, issued.Phone)
	assert.Len(t, issued.Code, phone.CodeLength)
	assert.Equal(t, f.clock.Now().Add(phone.CodeTTL), issued.ExpiresAt)
	assert.Zero(t, issued.Attempts)
	assert.False(t, issued.Used)

	active, err := f.engine.HasActiveCode(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, active)

	current, err := f.engine.GetActiveCode(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, current.ID)
}

/*
TestEngine_SecondIssueSupersedesFirst checks that only the newest code redeems.
*/
func TestEngine_SecondIssueSupersedesFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.RequestCode(ctx, testPhone)
	require.NoError(t, err)
	second, err := f.engine.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	current, err := f.engine.GetActiveCode(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	_, err = f.engine.VerifyCode(ctx, testPhone, first.Code)
	assert.ErrorIs(t, err, phone.ErrInvalidOrExpiredCode)

	_, err = f.engine.VerifyCode(ctx, testPhone, second.Code)
	assert.NoError(t, err)

	history, err := f.engine.History(ctx, testPhone)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.True(t, history[1].Used)
}

/*
TestEngine_AttemptsExhaust verifies three failures lock the code even for the right value.
*/
func TestEngine_AttemptsExhaust(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.engine.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	for range phone.MaxAttempts {
		_, err := f.engine.VerifyCode(ctx, testPhone, "000000")
		assert.ErrorIs(t, err, phone.ErrInvalidOrExpiredCode)
	}

	active, err := f.engine.HasActiveCode(ctx, testPhone)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = f.engine.VerifyCode(ctx, testPhone, issued.Code)
	assert.ErrorIs(t, err, phone.ErrInvalidOrExpiredCode)

	history, err := f.store.FindAllByPhone(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, phone.MaxAttempts+1, history[0].Attempts)
	assert.Zero(t, history[0].AttemptsLeft())
}

/*
TestEngine_TwoFailuresThenSuccess shows a code survives fewer than MaxAttempts failures.
*/
func TestEngine_TwoFailuresThenSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.engine.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	for range phone.MaxAttempts - 1 {
		_, err := f.engine.VerifyCode(ctx, testPhone, "999999")
		require.ErrorIs(t, err, phone.ErrInvalidOrExpiredCode)
	}

	current, err := f.engine.GetActiveCode(ctx, testPhone)
	require.NoError(t, err)
	assert.Equal(t, 1, current.AttemptsLeft())

	_, err = f.engine.VerifyCode(ctx, testPhone, issued.Code)
	assert.NoError(t, err)
}

/*
TestEngine_SingleUse verifies replaying a redeemed code fails.
*/
func TestEngine_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.engine.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	consumed, err := f.engine.VerifyCode(ctx, testPhone, issued.Code)
	require.NoError(t, err)
	assert.True(t, consumed.Used)

	_, err = f.engine.VerifyCode(ctx, testPhone, issued.Code)
	assert.ErrorIs(t, err, phone.ErrInvalidOrExpiredCode)

	active, err := f.engine.HasActiveCode(ctx, testPhone)
	require.NoError(t, err)
	assert.False(t, active)
}

/*
TestEngine_ExpiredCodeRejected verifies codes stop working after CodeTTL.
*/
func TestEngine_ExpiredCodeRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.engine.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	f.clock.Advance(phone.CodeTTL)

	_, err = f.engine.VerifyCode(ctx, testPhone, issued.Code)
	assert.ErrorIs(t, err, phone.ErrInvalidOrExpiredCode)
}

/*
TestEngine_RateLimit allows five codes per hour and refuses the sixth.
*/
func TestEngine_RateLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for index := range phone.MaxCodesPerWindow {
		_, err := f.engine.RequestCode(ctx, testPhone)
		require.NoError(t, err, "request %d", index+1)
		f.clock.Advance(time.Minute)
	}

	_, err := f.engine.RequestCode(ctx, testPhone)
	assert.ErrorIs(t, err, phone.ErrRateLimitExceeded)

	history, err := f.engine.History(ctx, testPhone)
	require.NoError(t, err)
	assert.Len(t, history, phone.MaxCodesPerWindow)

	// The window slides: once the first code is older than an hour, one more fits.
	f.clock.Advance(phone.RateWindow - 4*time.Minute)
	_, err = f.engine.RequestCode(ctx, testPhone)
	assert.NoError(t, err)

	// Other phones are unaffected.
	_, err = f.engine.RequestCode(ctx, "15550109999")
	assert.NoError(t, err)
}

/*
TestEngine_RateLimitIsAtomic fires concurrent requests and expects exactly five to pass.
*/
func TestEngine_RateLimitIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		limited   int
	)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.RequestCode(ctx, testPhone)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, phone.ErrRateLimitExceeded):
				limited++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, phone.MaxCodesPerWindow, succeeded)
	assert.Equal(t, 20-phone.MaxCodesPerWindow, limited)
}

/*
TestEngine_ConcurrentVerifySingleWinner ensures only one concurrent verifier consumes the code.
*/
func TestEngine_ConcurrentVerifySingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issued, err := f.engine.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.VerifyCode(ctx, testPhone, issued.Code); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

/*
TestEngine_InvalidPhone rejects malformed numbers before touching the store.
*/
func TestEngine_InvalidPhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.RequestCode(context.Background(), "123")
	assert.ErrorIs(t, err, phone.ErrInvalidPhoneFormat)

	_, err = f.engine.VerifyCode(context.Background(), "", "123456")
	assert.ErrorIs(t, err, phone.ErrInvalidOrExpiredCode)
}

/*
TestEngine_Cleanup removes expired codes that were already invisible to lookups.
*/
func TestEngine_Cleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	f.clock.Advance(phone.CodeTTL + time.Second)

	_, err = f.engine.GetActiveCode(ctx, testPhone)
	assert.ErrorIs(t, err, phone.ErrCodeNotFound)

	history, err := f.engine.History(ctx, testPhone)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	deleted, err := f.engine.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	history, err = f.engine.History(ctx, testPhone)
	require.NoError(t, err)
	assert.Empty(t, history)
}

/*
TestEngine_RunCleanupStops verifies the sweeper exits when its context is cancelled.
*/
func TestEngine_RunCleanupStops(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.engine.RunCleanup(ctx, time.Millisecond)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop")
	}
}

/*
TestEngine_EndToEnd walks a formatted phone number through issue and verify.
*/
func TestEngine_EndToEnd(t *testing.T) {
	clock := &fakeClock{current: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
	engine := phone.NewEngine(phone.NewMemoryStore(), phone.NewLocalLocker(),
		slog.New(slog.NewTextHandler(io.Discard, nil)), phone.WithClock(clock.Now))
	ctx := context.Background()

	issued, err := engine.RequestCode(ctx, "+1 (555) 010-2030")
	require.NoError(t, err)
	assert.Equal(t, "15550102030", issued.Phone)
	assert.Regexp(t, `^\d{6}$`, issued.Code)

	_, err = engine.VerifyCode(ctx, "+1 (555) 010-2030", issued.Code)
	require.NoError(t, err)

	_, err = engine.VerifyCode(ctx, "15550102030", issued.Code)
	assert.ErrorIs(t, err, phone.ErrInvalidOrExpiredCode)
}

type failingStore struct {
	*phone.MemoryStore
}

func (failingStore) CountIssuedSince(context.Context, string, time.Time) (int, error) {
	return 0, fmt.Errorf("phone_store_count_since_failed: %w", phone.ErrStorage)
}

/*
TestEngine_StorageError surfaces backend failures as ErrStorage.
*/
func TestEngine_StorageError(t *testing.T) {
	engine := phone.NewEngine(failingStore{phone.NewMemoryStore()}, phone.NewLocalLocker(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := engine.RequestCode(context.Background(), testPhone)
	assert.ErrorIs(t, err, phone.ErrStorage)
}
