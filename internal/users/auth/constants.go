// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Account Defaults

const (
	// DefaultUserName is given to phone accounts created without a name.
	DefaultUserName = "User"

	// PlaceholderEmailDomain completes the synthetic email of phone accounts.
	PlaceholderEmailDomain = "dobalito.local"

	// MinPasswordLength applies to email/password registration.
	MinPasswordLength = 6

	// MaxNameLength bounds display names.
	MaxNameLength = 100
)

// # Redis Prefixes

const (
	// redisPrefixRevokedToken marks tokens invalidated by logout.
	redisPrefixRevokedToken = "auth:revoked_token:"
)
