// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package phone

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded [CodeStore] for tests and local development.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	codes  map[int64]*VerificationCode
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[int64]*VerificationCode)}
}

func (repository *MemoryStore) Save(_ context.Context, code *VerificationCode) (*VerificationCode, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored := *code
	if stored.ID == 0 {
		repository.nextID++
		stored.ID = repository.nextID
	}
	repository.codes[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (repository *MemoryStore) FindActiveByPhone(_ context.Context, phone string, now time.Time) (*VerificationCode, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	return repository.newest(func(code *VerificationCode) bool {
		return code.Phone == phone && code.IsActive(now)
	})
}

func (repository *MemoryStore) FindByPhoneAndCode(_ context.Context, phone, value string, now time.Time) (*VerificationCode, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	return repository.newest(func(code *VerificationCode) bool {
		return code.Phone == phone && code.Code == value && !code.Used && !code.IsExpired(now)
	})
}

func (repository *MemoryStore) FindAllByPhone(_ context.Context, phone string) ([]*VerificationCode, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	matches := repository.filter(func(code *VerificationCode) bool { return code.Phone == phone })
	return matches, nil
}

func (repository *MemoryStore) CountIssuedSince(_ context.Context, phone string, since time.Time) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	count := 0
	for _, code := range repository.codes {
		if code.Phone == phone && code.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (repository *MemoryStore) IncrementAttempts(_ context.Context, id int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	code, ok := repository.codes[id]
	if !ok {
		return ErrCodeNotFound
	}
	code.Attempts++
	return nil
}

func (repository *MemoryStore) MarkUsed(_ context.Context, id int64, now time.Time) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	code, ok := repository.codes[id]
	if !ok || !code.IsActive(now) {
		return false, nil
	}
	code.Used = true
	return true, nil
}

func (repository *MemoryStore) InvalidateUnused(_ context.Context, phone string) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var invalidated int64
	for _, code := range repository.codes {
		if code.Phone == phone && !code.Used {
			code.Used = true
			invalidated++
		}
	}
	return invalidated, nil
}

func (repository *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var deleted int64
	for id, code := range repository.codes {
		if code.ExpiresAt.Before(now) {
			delete(repository.codes, id)
			deleted++
		}
	}
	return deleted, nil
}

// filter returns copies of matching codes, newest first. Caller holds mu.
func (repository *MemoryStore) filter(match func(*VerificationCode) bool) []*VerificationCode {
	matches := make([]*VerificationCode, 0)
	for _, code := range repository.codes {
		if match(code) {
			clone := *code
			matches = append(matches, &clone)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches
}

// newest returns the most recent matching code. Caller holds mu.
func (repository *MemoryStore) newest(match func(*VerificationCode) bool) (*VerificationCode, error) {
	matches := repository.filter(match)
	if len(matches) == 0 {
		return nil, ErrCodeNotFound
	}
	return matches[0], nil
}
