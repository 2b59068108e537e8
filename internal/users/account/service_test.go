// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dobalito/api/internal/platform/apperr"
	"github.com/dobalito/api/internal/users/account"
	"github.com/dobalito/api/internal/users/auth"
	"github.com/dobalito/api/pkg/pagination"
)

// pngBytes is enough of a PNG for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

// catalog is the category set known to the fakes.
var catalog = map[int64]account.Specialization{
	10: {ID: 10, Name: "Серфинг", EnglishName: "Surfing", Slug: "surfing"},
	11: {ID: 11, Name: "Аренда байка", EnglishName: "Bike Rental", Slug: "bike-rental"},
	12: {ID: 12, Name: "Туризм", EnglishName: "Tourism", Slug: "tourism"},
}

type knownCategories struct{}

func (knownCategories) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := catalog[id]
	return ok, nil
}

type memoryAccounts struct {
	mu              sync.Mutex
	users           map[int64]*auth.User
	specializations map[int64][]int64
}

func newMemoryAccounts(users ...*auth.User) *memoryAccounts {
	repository := &memoryAccounts{
		users:           make(map[int64]*auth.User),
		specializations: make(map[int64][]int64),
	}
	for _, user := range users {
		repository.users[user.ID] = user
	}
	return repository
}

func (repository *memoryAccounts) FindByID(_ context.Context, id int64) (*auth.User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *memoryAccounts) UpdateProfile(_ context.Context, user *auth.User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for id, existing := range repository.users {
		if id != user.ID && user.Email != nil && existing.Email != nil && *existing.Email == *user.Email {
			return apperr.Conflict("User already exists")
		}
	}
	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

func (repository *memoryAccounts) UpdateAvatar(_ context.Context, id int64, avatar *string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Avatar = avatar
	return nil
}

func (repository *memoryAccounts) List(_ context.Context, query account.UserQuery) ([]*auth.User, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	term := strings.ToLower(strings.TrimSpace(query.Search))
	matches := make([]*auth.User, 0)
	for _, user := range repository.users {
		if query.CategoryID != 0 && !containsID(repository.specializations[user.ID], query.CategoryID) {
			continue
		}
		if term != "" {
			email := ""
			if user.Email != nil {
				email = *user.Email
			}
			if !strings.Contains(strings.ToLower(user.Name), term) && !strings.Contains(strings.ToLower(email), term) {
				continue
			}
		}
		clone := *user
		matches = append(matches, &clone)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name == matches[j].Name {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Name < matches[j].Name
	})

	total := len(matches)
	start := min(query.Page.Offset(), total)
	end := min(start+query.Page.Limit, total)
	return matches[start:end], total, nil
}

func (repository *memoryAccounts) Specializations(_ context.Context, userID int64) ([]account.Specialization, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	result := make([]account.Specialization, 0)
	for _, id := range repository.specializations[userID] {
		result = append(result, catalog[id])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (repository *memoryAccounts) ReplaceSpecializations(_ context.Context, userID int64, categoryIDs []int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, id := range categoryIDs {
		if _, ok := catalog[id]; !ok {
			return apperr.Unprocessable("Specialization references a missing record")
		}
	}
	repository.specializations[userID] = append([]int64(nil), categoryIDs...)
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func ptr(value string) *string { return &value }

type fixture struct {
	service  *account.Service
	accounts *memoryAccounts
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	storage, err := account.NewLocalAvatarStorage(dir)
	require.NoError(t, err)

	accounts := newMemoryAccounts(
		&auth.User{ID: 1, Name: "Anna", Phone: ptr("15550102030"), Email: ptr("temp_15550102030@dobalito.local")},
		&auth.User{ID: 2, Name: "Boris", Email: ptr("boris@example.com")},
		&auth.User{ID: 3, Name: "Clara", Email: ptr("clara@surf.example")},
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		service:  account.NewService(accounts, storage, knownCategories{}, logger),
		accounts: accounts,
		dir:      dir,
	}
}

func filesIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	updated, err := f.service.UpdateProfile(ctx, 1, account.UpdateProfileInput{Name: ptr("  Anna K. "), Email: ptr("Anna@Example.com")})
	require.NoError(t, err)
	assert.Equal(t, "Anna K.", updated.Name)
	assert.Equal(t, "anna@example.com", *updated.Email)

	nameOnly, err := f.service.UpdateProfile(ctx, 1, account.UpdateProfileInput{Name: ptr("Anya")})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", *nameOnly.Email)

	_, err = f.service.UpdateProfile(ctx, 1, account.UpdateProfileInput{Email: ptr("boris@example.com")})
	assert.Equal(t, http.StatusConflict, apperr.As(err).HTTPStatus)

	_, err = f.service.UpdateProfile(ctx, 99, account.UpdateProfileInput{Name: ptr("Ghost")})
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_UploadAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	firstURL, err := f.service.UploadAvatar(ctx, 1, bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(firstURL, account.AvatarURLPrefix))
	assert.True(t, strings.HasSuffix(firstURL, ".png"))

	first := strings.TrimPrefix(firstURL, account.AvatarURLPrefix)
	assert.Equal(t, []string{first}, filesIn(t, f.dir))

	// Replacing the avatar removes the old file.
	secondURL, err := f.service.UploadAvatar(ctx, 1, bytes.NewReader(pngBytes))
	require.NoError(t, err)
	second := strings.TrimPrefix(secondURL, account.AvatarURLPrefix)
	assert.Equal(t, []string{second}, filesIn(t, f.dir))

	profile, err := f.service.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, secondURL, *profile.Avatar)

	file, _, err := f.service.OpenAvatar(ctx, second)
	require.NoError(t, err)
	content, err := io.ReadAll(file)
	require.NoError(t, file.Close())
	require.NoError(t, err)
	assert.Equal(t, pngBytes, content)
}

func TestService_UploadAvatar_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.UploadAvatar(ctx, 1, strings.NewReader("just some text"))
	assert.Equal(t, http.StatusBadRequest, apperr.As(err).HTTPStatus)

	_, err = f.service.UploadAvatar(ctx, 1, bytes.NewReader(nil))
	assert.Equal(t, http.StatusBadRequest, apperr.As(err).HTTPStatus)

	oversized := append(append([]byte{}, pngBytes...), make([]byte, account.MaxAvatarSize)...)
	_, err = f.service.UploadAvatar(ctx, 1, bytes.NewReader(oversized))
	assert.Equal(t, http.StatusBadRequest, apperr.As(err).HTTPStatus)

	assert.Empty(t, filesIn(t, f.dir))
}

func TestService_DeleteAvatar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.service.DeleteAvatar(ctx, 1)
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.service.UploadAvatar(ctx, 1, bytes.NewReader(pngBytes))
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteAvatar(ctx, 1))
	assert.Empty(t, filesIn(t, f.dir))

	profile, err := f.service.GetProfile(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, profile.Avatar)
}

func TestService_OpenAvatar_RejectsForeignNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "secret.txt"), []byte("x"), 0o600))

	for _, name := range []string{"secret.txt", "../secret.txt", "", "0190f2c4-8a6e-7c3b-9d1e-2f4a5b6c7d8e.exe"} {
		_, _, err := f.service.OpenAvatar(ctx, name)
		assert.True(t, apperr.IsNotFound(err), name)
	}

	_, _, err := f.service.OpenAvatar(ctx, "0190f2c4-8a6e-7c3b-9d1e-2f4a5b6c7d8e.png")
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_Specializations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.service.Specializations(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)

	stored, err := f.service.SetSpecializations(ctx, 2, []int64{12, 10, 12})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "surfing", stored[0].Slug)
	assert.Equal(t, "tourism", stored[1].Slug)
	assert.ElementsMatch(t, []int64{10, 12}, f.accounts.specializations[2])

	cleared, err := f.service.SetSpecializations(ctx, 2, []int64{})
	require.NoError(t, err)
	assert.Empty(t, cleared)

	_, err = f.service.Specializations(ctx, 99)
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_SetSpecializations_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tooMany := make([]int64, 0, account.MaxSpecializations+1)
	for i := range account.MaxSpecializations + 1 {
		tooMany = append(tooMany, int64(100+i))
	}

	tests := []struct {
		name   string
		userID int64
		ids    []int64
		status int
	}{
		{"unknown_category", 2, []int64{10, 404}, http.StatusBadRequest},
		{"too_many", 2, tooMany, http.StatusBadRequest},
		{"unknown_user", 99, []int64{10}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.SetSpecializations(ctx, tt.userID, tt.ids)
			require.Error(t, err)
			assert.Equal(t, tt.status, apperr.As(err).HTTPStatus)
		})
	}

	assert.Empty(t, f.accounts.specializations[2])
}

func TestService_Directory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	page := pagination.Params{Page: 1, Limit: 2}

	_, err := f.service.SetSpecializations(ctx, 3, []int64{10})
	require.NoError(t, err)
	_, err = f.service.SetSpecializations(ctx, 1, []int64{10, 11})
	require.NoError(t, err)

	executors, total, err := f.service.ListExecutors(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, executors, 2)
	assert.Equal(t, "Anna", executors[0].Name)
	assert.Equal(t, "Boris", executors[1].Name)

	surfers, total, err := f.service.ListByCategory(ctx, 10, pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []int64{1, 3}, []int64{surfers[0].ID, surfers[1].ID})

	_, _, err = f.service.ListByCategory(ctx, 404, page)
	assert.True(t, apperr.IsNotFound(err))

	found, total, err := f.service.Search(ctx, "  SURF ", page)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(3), found[0].ID)

	_, _, err = f.service.Search(ctx, "   ", page)
	assert.Equal(t, http.StatusBadRequest, apperr.As(err).HTTPStatus)
	_, _, err = f.service.Search(ctx, strings.Repeat("x", account.MaxSearchLength+1), page)
	assert.Equal(t, http.StatusBadRequest, apperr.As(err).HTTPStatus)
}
