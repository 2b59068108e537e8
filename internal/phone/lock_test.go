// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dobalito/api/internal/phone"
)

/*
TestLocalLocker_Exclusive blocks a second holder until release.
*/
func TestLocalLocker_Exclusive(t *testing.T) {
	locker := phone.NewLocalLocker()
	ctx := context.Background()

	release, err := locker.Lock(ctx, testPhone)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(ctx, testPhone)
		if err == nil {
			second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}

/*
TestLocalLocker_IndependentKeys does not serialize different phones.
*/
func TestLocalLocker_IndependentKeys(t *testing.T) {
	locker := phone.NewLocalLocker()
	ctx := context.Background()

	first, err := locker.Lock(ctx, "15550000001")
	require.NoError(t, err)
	defer first()

	second, err := locker.Lock(ctx, "15550000002")
	require.NoError(t, err)
	second()
}

/*
TestLocalLocker_ContextCancel gives up waiting once the context ends.
*/
func TestLocalLocker_ContextCancel(t *testing.T) {
	locker := phone.NewLocalLocker()

	release, err := locker.Lock(context.Background(), testPhone)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, testPhone)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
