// Package storage holds creative media (ad images) and resolves the
// media refs recorded on creatives into URLs the remote platform can
// fetch during ad creation.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ignite/adpilot/internal/config"
)

// MediaStore stores uploaded creative assets and resolves refs to
// publicly fetchable URLs.
type MediaStore interface {
	// Upload stores an asset and returns its media ref.
	Upload(ctx context.Context, shop, filename, contentType string, body io.Reader) (string, error)

	// ResolveURL turns a media ref into a URL the ad platform can fetch.
	ResolveURL(ctx context.Context, ref string) (string, error)

	// Delete removes an asset.
	Delete(ctx context.Context, ref string) error
}

// New creates the media store named by the config: "s3" or "local".
func New(ctx context.Context, cfg config.StorageConfig) (MediaStore, error) {
	switch cfg.Type {
	case "s3":
		return NewS3MediaStore(ctx, cfg)
	case "local", "":
		return NewLocalMediaStore(cfg)
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}

// LocalMediaStore keeps assets on disk, served back under the app's own
// /media/ path. Suitable for development only: the ad platform must be
// able to reach the URL.
type LocalMediaStore struct {
	dir     string
	baseURL string
	mu      sync.Mutex
}

// NewLocalMediaStore creates a disk-backed media store.
func NewLocalMediaStore(cfg config.StorageConfig) (*LocalMediaStore, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &LocalMediaStore{
		dir:     cfg.LocalPath,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *LocalMediaStore) Upload(_ context.Context, shop, filename, _ string, body io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := mediaRef(shop, filename)
	path := filepath.Join(s.dir, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating shop directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("writing media file: %w", err)
	}
	return ref, nil
}

func (s *LocalMediaStore) ResolveURL(_ context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty media ref")
	}
	return s.baseURL + "/media/" + ref, nil
}

func (s *LocalMediaStore) Delete(_ context.Context, ref string) error {
	return os.Remove(filepath.Join(s.dir, filepath.FromSlash(ref)))
}

// Path returns the on-disk location of a ref, for the /media/ file server.
func (s *LocalMediaStore) Path(ref string) string {
	return filepath.Join(s.dir, filepath.FromSlash(ref))
}

// mediaRef builds the storage key: shop scoped, slashes normalized so a
// crafted filename cannot escape the shop prefix.
func mediaRef(shop, filename string) string {
	base := filepath.Base(filepath.Clean(filename))
	return shop + "/" + base
}
