// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dobalito/api/internal/phone"
	"github.com/dobalito/api/internal/platform/apperr"
	"github.com/dobalito/api/internal/platform/sec"
	"github.com/dobalito/api/internal/users/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memoryUsers is an in-memory [auth.UserRepository].
type memoryUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: make(map[int64]*auth.User)}
}

func (repository *memoryUsers) FindByID(_ context.Context, id int64) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.byID[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *memoryUsers) FindByPhone(_ context.Context, phone string) (*auth.User, error) {
	return repository.find(func(user *auth.User) bool { return user.Phone != nil && *user.Phone == phone })
}

func (repository *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	return repository.find(func(user *auth.User) bool {
		return user.Email != nil && strings.EqualFold(*user.Email, email)
	})
}

func (repository *memoryUsers) find(match func(*auth.User) bool) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, user := range repository.byID {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repository *memoryUsers) Create(_ context.Context, user *auth.User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.byID {
		if user.Phone != nil && existing.Phone != nil && *user.Phone == *existing.Phone {
			return apperr.Conflict("User already exists")
		}
		if user.Email != nil && existing.Email != nil && strings.EqualFold(*user.Email, *existing.Email) {
			return apperr.Conflict("User already exists")
		}
	}

	repository.nextID++
	user.ID = repository.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	clone := *user
	repository.byID[user.ID] = &clone
	return nil
}

func (repository *memoryUsers) UpdateName(_ context.Context, id int64, name string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.byID[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Name = name
	return nil
}

// memoryRevocations is an in-memory [auth.RevocationStore].
type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (store *memoryRevocations) Revoke(_ context.Context, token string, until time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.revoked[token] = until
	return nil
}

func (store *memoryRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.revoked[token]
	return ok, nil
}

// outbox records every SMS instead of sending it.
type outbox struct {
	mu       sync.Mutex
	messages map[string][]string
	fail     bool
}

func (box *outbox) Send(_ context.Context, phone, message string) error {
	if box.fail {
		return errors.New("carrier unreachable")
	}
	box.mu.Lock()
	defer box.mu.Unlock()
	box.messages[phone] = append(box.messages[phone], message)
	return nil
}

func (box *outbox) count(phone string) int {
	box.mu.Lock()
	defer box.mu.Unlock()
	return len(box.messages[phone])
}

type fixture struct {
	service     *auth.Service
	users       *memoryUsers
	codes       *phone.MemoryStore
	sms         *outbox
	tokens      *sec.TokenIssuer
	revocations *memoryRevocations
}

func newFixture(t *testing.T, options ...auth.Option) *fixture {
	t.Helper()

	logger := slogDiscard()
	tokens, err := sec.NewTokenIssuer(sec.TokenConfig{
		Secret: []byte(testSecret),
		TTL:    time.Hour,
		Issuer: "dobalito.test",
	})
	require.NoError(t, err)

	f := &fixture{
		users:       newMemoryUsers(),
		codes:       phone.NewMemoryStore(),
		sms:         &outbox{messages: make(map[string][]string)},
		tokens:      tokens,
		revocations: &memoryRevocations{revoked: make(map[string]time.Time)},
	}

	engine := phone.NewEngine(f.codes, phone.NewLocalLocker(), logger)
	options = append([]auth.Option{auth.WithCodeEcho(true), auth.WithRevocation(f.revocations)}, options...)
	f.service = auth.NewService(f.users, engine, f.sms, tokens, logger, options...)
	return f
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
