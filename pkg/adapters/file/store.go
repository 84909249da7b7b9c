package file

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ports"
)

// Store implements ports.ObjectStore on the local filesystem.
// Objects are written below BasePath and exposed under BaseURL, which the
// HTTP adapter can serve for local development.
type Store struct {
	BasePath string
	BaseURL  string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to "./artifacts".
func New(basePath, baseURL string) *Store {
	if basePath == "" {
		basePath = "artifacts"
	}
	return &Store{BasePath: basePath, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Store) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.BasePath, filepath.FromSlash(clean)), nil
}

// Put copies the local file to its key atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Put(ctx context.Context, key, src, contentType string) (domain.StoredArtifact, error) {
	destPath, err := s.path(key)
	if err != nil {
		return domain.StoredArtifact{}, err
	}

	in, err := os.Open(src)
	if err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("failed to ensure object directory: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmpFile, in); err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename fails on Windows when the destination exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return domain.StoredArtifact{}, fmt.Errorf("failed to remove existing object: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return domain.StoredArtifact{URL: s.URL(key), Key: key}, nil
}

// Open returns the stored object.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ports.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return f, nil
}

// URL returns the public URL of key. Without a BaseURL it is a file:// URL.
func (s *Store) URL(key string) string {
	if s.BaseURL == "" {
		abs, err := filepath.Abs(filepath.Join(s.BasePath, filepath.FromSlash(key)))
		if err != nil {
			abs = filepath.Join(s.BasePath, key)
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	return s.BaseURL + "/" + strings.TrimLeft(key, "/")
}
