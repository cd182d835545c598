// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package storage keeps certificate template images in an object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"codeberg.org/acmclub/certificates/internal/apperr"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload in bytes.
const MaxImageSize = 10 << 20

var (
	ErrNotFound        = errors.New("object not found")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
)

// AllowedTypes maps accepted content types to the stored file extension.
var AllowedTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/webp": "webp",
}

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ObjectStore is a flat folder/name object store with public URLs.
type ObjectStore interface {
	// Upload stores data and returns its public URL.
	Upload(ctx context.Context, folder string, data []byte, filename, contentType string) (string, error)
	// List returns the public URLs of all objects in folder.
	List(ctx context.Context, folder string) ([]string, error)
	// Delete removes an object and reports whether it existed.
	Delete(ctx context.Context, folder, filename string) (bool, error)
}

// ImageService validates images before handing them to an ObjectStore.
type ImageService struct {
	store ObjectStore
}

func NewImageService(store ObjectStore) *ImageService {
	return &ImageService{store: store}
}

// Upload stores an image under folder with a fresh random name and returns
// its public URL. The original filename only contributes its extension.
func (s *ImageService) Upload(ctx context.Context, folder, filename, contentType string, data []byte) (string, error) {
	contentType = normalizeType(contentType, data)
	ext, ok := AllowedTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	if err := checkSegment("folder", folder); err != nil {
		return "", err
	}
	if e := strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")); e == "jpeg" || e == "jpg" || e == "png" || e == "webp" {
		ext = e
	}

	name := objectName(ext)
	url, err := s.store.Upload(ctx, folder, data, name, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	slog.Info("image_uploaded", "folder", folder, "name", name, "size", len(data))
	return url, nil
}

// List returns the public URLs of the images in folder.
func (s *ImageService) List(ctx context.Context, folder string) ([]string, error) {
	if err := checkSegment("folder", folder); err != nil {
		return nil, err
	}

	urls, err := s.store.List(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// Delete removes an image. A missing image is ErrNotFound.
func (s *ImageService) Delete(ctx context.Context, folder, filename string) error {
	if err := checkSegment("folder", folder); err != nil {
		return err
	}
	if err := checkSegment("filename", filename); err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, folder, filename)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}

	slog.Info("image_deleted", "folder", folder, "name", filename)
	return nil
}

// normalizeType strips parameters from the declared type and sniffs the data
// when the client sent none.
func normalizeType(contentType string, data []byte) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	return contentType
}

func checkSegment(field, s string) error {
	if !segmentPattern.MatchString(s) || strings.Contains(s, "..") {
		return apperr.Invalid(field, "must be a single path segment of letters, digits, '.', '_' or '-'")
	}
	return nil
}

func objectName(ext string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "." + ext
}
