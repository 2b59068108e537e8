// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/dobalito/api/internal/platform/ctxkey"
	"github.com/dobalito/api/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithIdentity returns a new context carrying the resolved caller.
func WithIdentity(ctx context.Context, identity sec.Identity) context.Context {
	return context.WithValue(ctx, ctxkey.KeyIdentity, identity)
}

// GetIdentity retrieves the caller from the context.
// Requests that never passed through the identity middleware are [sec.Anonymous].
func GetIdentity(ctx context.Context) sec.Identity {
	identity, ok := ctx.Value(ctxkey.KeyIdentity).(sec.Identity)
	if !ok || identity == nil {
		return sec.Anonymous{}
	}
	return identity
}

// GetAuthenticated returns the authenticated caller, if any.
func GetAuthenticated(ctx context.Context) (sec.Authenticated, bool) {
	return sec.AsAuthenticated(GetIdentity(ctx))
}
