// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dobalito/api/internal/platform/apperr"
)

// LocalAvatarStorage keeps avatars as files in a single directory.
type LocalAvatarStorage struct {
	dir string
}

// NewLocalAvatarStorage creates the directory when missing.
func NewLocalAvatarStorage(dir string) (*LocalAvatarStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("avatar_storage_init_failed: %w", err)
	}
	return &LocalAvatarStorage{dir: dir}, nil
}

// path confines name to the storage directory.
func (storage *LocalAvatarStorage) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", apperr.NotFound("Avatar")
	}
	return filepath.Join(storage.dir, name), nil
}

func (storage *LocalAvatarStorage) Save(_ context.Context, name string, content io.Reader) error {
	target, err := storage.path(name)
	if err != nil {
		return err
	}

	// Write to a temp file first so readers never see a partial image.
	temp, err := os.CreateTemp(storage.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("avatar_storage_save_failed: %w", err)
	}
	defer os.Remove(temp.Name())

	if _, err := io.Copy(temp, content); err != nil {
		_ = temp.Close()
		return fmt.Errorf("avatar_storage_save_failed: %w", err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("avatar_storage_save_failed: %w", err)
	}

	if err := os.Rename(temp.Name(), target); err != nil {
		return fmt.Errorf("avatar_storage_save_failed: %w", err)
	}
	return nil
}

func (storage *LocalAvatarStorage) Open(_ context.Context, name string) (io.ReadSeekCloser, time.Time, error) {
	target, err := storage.path(name)
	if err != nil {
		return nil, time.Time{}, err
	}

	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, time.Time{}, apperr.NotFound("Avatar")
		}
		return nil, time.Time{}, fmt.Errorf("avatar_storage_open_failed: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, time.Time{}, fmt.Errorf("avatar_storage_stat_failed: %w", err)
	}

	return file, info.ModTime(), nil
}

func (storage *LocalAvatarStorage) Delete(_ context.Context, name string) error {
	target, err := storage.path(name)
	if err != nil {
		return nil
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("avatar_storage_delete_failed: %w", err)
	}
	return nil
}
