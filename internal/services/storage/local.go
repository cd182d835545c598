// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UploadsPath is the URL prefix under which LocalStore files are served.
const UploadsPath = "/uploads"

// LocalStore keeps objects as files below a directory.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates the store directory if needed. baseURL is the public
// server URL; object URLs are <baseURL>/uploads/<folder>/<name>.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the root directory of the store.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Upload(_ context.Context, folder string, data []byte, filename, _ string) (string, error) {
	folderDir := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(folderDir, 0o755); err != nil {
		return "", err
	}

	f, err := os.OpenFile(filepath.Join(folderDir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return s.url(folder, filename), nil
}

func (s *LocalStore) List(_ context.Context, folder string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, folder))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		urls = append(urls, s.url(folder, e.Name()))
	}
	return urls, nil
}

func (s *LocalStore) Delete(_ context.Context, folder, filename string) (bool, error) {
	err := os.Remove(filepath.Join(s.dir, folder, filename))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *LocalStore) url(folder, filename string) string {
	return s.baseURL + UploadsPath + "/" + folder + "/" + filename
}
