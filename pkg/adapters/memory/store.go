package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ports"
)

// Store implements ports.ObjectStore in memory.
// Safe for concurrent use.
type Store struct {
	data    map[string][]byte
	baseURL string
	mu      sync.RWMutex
}

// NewStore creates a new in-memory store. URLs are baseURL + "/" + key.
func NewStore(baseURL string) *Store {
	if baseURL == "" {
		baseURL = "memory://artifacts"
	}
	return &Store{
		data:    make(map[string][]byte),
		baseURL: baseURL,
	}
}

// Put reads the file into memory.
func (s *Store) Put(ctx context.Context, key, path, contentType string) (domain.StoredArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return domain.StoredArtifact{URL: s.baseURL + "/" + key, Key: key}, nil
}

// Open returns a copy of the stored bytes.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[key]
	if !ok {
		return nil, ports.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Keys returns the stored keys in no particular order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
