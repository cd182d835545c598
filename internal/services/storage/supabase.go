// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/acmclub/certificates/internal/config"
)

// SupabaseStore talks to the Supabase Storage REST API with a service key.
type SupabaseStore struct {
	baseURL string
	key     string
	bucket  string
	client  *http.Client
}

type SupabaseOption func(*SupabaseStore)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) SupabaseOption {
	return func(s *SupabaseStore) {
		s.client = c
	}
}

func NewSupabaseStore(cfg config.StorageConfig, opts ...SupabaseOption) *SupabaseStore {
	s := &SupabaseStore{
		baseURL: strings.TrimSuffix(cfg.SupabaseURL, "/"),
		key:     cfg.SupabaseServiceKey,
		bucket:  cfg.SupabaseBucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type listRequest struct {
	Prefix string     `json:"prefix"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
	SortBy listSortBy `json:"sortBy"`
}

type listSortBy struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

type objectInfo struct {
	Name string  `json:"name"`
	ID   *string `json:"id"`
}

type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

func (s *SupabaseStore) Upload(ctx context.Context, folder string, data []byte, filename, contentType string) (string, error) {
	objectPath := folder + "/" + filename

	req, err := s.newRequest(ctx, http.MethodPost, s.objectURL(objectPath), bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	if err := s.do(req, nil); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}

	return s.PublicURL(objectPath), nil
}

func (s *SupabaseStore) List(ctx context.Context, folder string) ([]string, error) {
	body, err := json.Marshal(listRequest{
		Prefix: folder,
		Limit:  1000,
		SortBy: listSortBy{Column: "name", Order: "asc"},
	})
	if err != nil {
		return nil, err
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.baseURL+"/storage/v1/object/list/"+url.PathEscape(s.bucket), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var objects []objectInfo
	if err := s.do(req, &objects); err != nil {
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}

	urls := make([]string, 0, len(objects))
	for _, o := range objects {
		// Sub-folders come back without an id.
		if o.Name == "" || strings.HasPrefix(o.Name, ".") || o.ID == nil {
			continue
		}
		urls = append(urls, s.PublicURL(folder+"/"+o.Name))
	}
	return urls, nil
}

func (s *SupabaseStore) Delete(ctx context.Context, folder, filename string) (bool, error) {
	objectPath := folder + "/" + filename

	body, err := json.Marshal(removeRequest{Prefixes: []string{objectPath}})
	if err != nil {
		return false, err
	}

	req, err := s.newRequest(ctx, http.MethodDelete, s.baseURL+"/storage/v1/object/"+url.PathEscape(s.bucket), bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	var removed []objectInfo
	if err := s.do(req, &removed); err != nil {
		return false, fmt.Errorf("delete %s: %w", objectPath, err)
	}

	return len(removed) > 0, nil
}

// PublicURL returns the public download URL of an object path.
func (s *SupabaseStore) PublicURL(objectPath string) string {
	return s.baseURL + "/storage/v1/object/public/" + url.PathEscape(s.bucket) + "/" + escapePath(objectPath)
}

func (s *SupabaseStore) objectURL(objectPath string) string {
	return s.baseURL + "/storage/v1/object/" + url.PathEscape(s.bucket) + "/" + escapePath(objectPath)
}

func (s *SupabaseStore) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("apikey", s.key)
	return req, nil
}

// do sends req and decodes a JSON response into out when out is non-nil.
func (s *SupabaseStore) do(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
