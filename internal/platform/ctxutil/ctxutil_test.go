// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dobalito/api/internal/platform/ctxutil"
	"github.com/dobalito/api/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_Identity verifies the anonymous default and the authenticated variant.
*/
func TestContext_Identity(t *testing.T) {
	ctx := context.Background()

	// 1. Missing identity means anonymous
	assert.Equal(t, sec.Anonymous{}, ctxutil.GetIdentity(ctx))
	_, ok := ctxutil.GetAuthenticated(ctx)
	assert.False(t, ok)

	// 2. Inject and retrieve
	ctx = ctxutil.WithIdentity(ctx, sec.Authenticated{UserID: 12, Phone: "15550102030", Name: "Eve"})
	caller, ok := ctxutil.GetAuthenticated(ctx)

	assert.True(t, ok)
	assert.True(t, ctxutil.GetIdentity(ctx).IsAuthenticated())
	assert.Equal(t, int64(12), caller.UserID)
	assert.Equal(t, "15550102030", caller.Phone)
}
