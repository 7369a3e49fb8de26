// Package storage removes the binary assets behind media records.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// AssetStore removes objects from the external binary-asset store.
// Removing an object that no longer exists succeeds.
type AssetStore interface {
	Remove(ctx context.Context, key string) error
}

// GCSStore removes assets from a Google Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore creates a GCSStore. An empty credentialsFile falls back to
// application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Remove deletes the object named key.
func (s *GCSStore) Remove(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err == nil || errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return fmt.Errorf("delete gs://%s/%s: %w", s.bucket, key, err)
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// LocalStore keeps assets under a directory on local disk. It backs the
// development setup where uploads are written next to the database file.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a LocalStore rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("local storage dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir %q: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", abs, err)
	}
	return &LocalStore{dir: abs}, nil
}

// Remove deletes the file named key. Keys escaping the root are rejected.
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if rel, err := filepath.Rel(s.dir, path); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("invalid asset key %q", key)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Path returns the on-disk location of key.
func (s *LocalStore) Path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// Discard accepts every removal without touching any store. It is used when
// no asset store is configured.
type Discard struct{}

// Remove implements AssetStore.
func (Discard) Remove(context.Context, string) error { return nil }
