// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocationStore implements [RevocationStore] using Redis keys that
// expire together with the token they revoke.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRevocationStore creates a new Redis-backed RevocationStore.
func NewRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// revocationKey stores a digest so raw tokens never land in Redis.
func revocationKey(token string) string {
	digest := sha256.Sum256([]byte(token))
	return redisPrefixRevokedToken + hex.EncodeToString(digest[:])
}

/*
Revoke marks token as revoked until its expiry.

Parameters:
  - context: context.Context
  - token: string
  - until: time.Time

Returns:
  - error: Execution errors
*/
func (repository *RedisRevocationStore) Revoke(context context.Context, token string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	if err := repository.client.Set(context, revocationKey(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis_revocation_set_failed: %w", err)
	}
	return nil
}

/*
IsRevoked checks for the revocation marker of token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - bool: true when a marker exists
  - error: Execution errors
*/
func (repository *RedisRevocationStore) IsRevoked(context context.Context, token string) (bool, error) {
	count, err := repository.client.Exists(context, revocationKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revocation_exists_failed: %w", err)
	}
	return count > 0, nil
}
