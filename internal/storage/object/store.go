// Package object stores groups in any location viant/afs can address:
// s3://bucket/prefix, gs://bucket/prefix, file:///var/lib/groups or
// mem://localhost/groups for tests.
package object

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bcnelson/cidr-group-central/internal/domain"
	"github.com/bcnelson/cidr-group-central/internal/storage"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Store implements storage.ObjectStore over an afs base URL.
// Object stores offer no create-if-absent primitive, so Store does not
// implement storage.ConditionalPutter.
type Store struct {
	fs      afs.Service
	baseURL string
	timeout time.Duration
}

var _ storage.ObjectStore = (*Store)(nil)

// New creates a Store rooted at baseURL.
func New(baseURL string, timeout time.Duration) (*Store, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("object store URL is required")
	}
	if url.Scheme(baseURL, "") == "" {
		return nil, fmt.Errorf("object store URL %q must include a scheme (s3://, gs://, file://, mem://)", baseURL)
	}
	return &Store{fs: afs.New(), baseURL: baseURL, timeout: timeout}, nil
}

// Close is a no-op; afs manages its own connections.
func (s *Store) Close() error { return nil }

// BaseURL returns the location objects are stored under.
func (s *Store) BaseURL() string {
	return s.baseURL
}

func (s *Store) objectURL(key string) string {
	return url.Join(s.baseURL, key)
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.fs.Upload(ctx, s.objectURL(key), file.DefaultFileOsMode, bytes.NewReader(value)); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	objectURL := s.objectURL(key)
	exists, err := s.fs.Exists(ctx, objectURL)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", key, err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, objectURL)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	objectURL := s.objectURL(key)
	exists, err := s.fs.Exists(ctx, objectURL)
	if err != nil {
		return fmt.Errorf("checking %s: %w", key, err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := s.fs.Delete(ctx, objectURL); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// ListKeys lists the objects directly under the base URL. Paging of the
// underlying bucket listing is handled by the afs connector.
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	keys := make([]string, 0)
	exists, err := s.fs.Exists(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", s.baseURL, err)
	}
	if !exists {
		return keys, nil
	}

	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.baseURL, err)
	}
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		name := obj.Name()
		if strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
