package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/inf-monkeys/monkey-tools-text/pkg/ports"
)

// Cached serves repeated loads of the same URL from a content cache. With a
// Locker set, concurrent misses across replicas collapse into a single load
// of the origin.
type Cached struct {
	next    Loader
	mode    string
	cache   ports.ContentCache
	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// CachedOption configures a Cached loader.
type CachedOption func(*Cached)

// WithLocker serializes misses for the same key.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) CachedOption {
	return func(c *Cached) {
		c.locker = l
		c.lockTTL = ttl
	}
}

// WithCacheLogger sets the logger used for cache failures.
func WithCacheLogger(l *slog.Logger) CachedOption {
	return func(c *Cached) {
		c.logger = l
	}
}

// NewCached wraps next. mode tells static and rendered loads of the same URL
// apart in the cache.
func NewCached(next Loader, mode string, cache ports.ContentCache, opts ...CachedOption) *Cached {
	c := &Cached{
		next:    next,
		mode:    mode,
		cache:   cache,
		lockTTL: time.Minute,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached document for rawURL or loads and stores it.
// The cache is best effort: read and write failures are logged and the
// origin is used.
func (c *Cached) Load(ctx context.Context, rawURL string) (Document, error) {
	key := c.key(rawURL)
	if doc, ok := c.lookup(ctx, key); ok {
		return doc, nil
	}

	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, key, c.lockTTL)
		if err != nil {
			return Document{}, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn("loader cache unlock failed", "key", key, "error", err)
			}
		}()
		if doc, ok := c.lookup(ctx, key); ok {
			return doc, nil
		}
	}

	doc, err := c.next.Load(ctx, rawURL)
	if err != nil {
		return Document{}, err
	}

	if data, err := json.Marshal(doc); err == nil {
		if err := c.cache.Set(ctx, key, data); err != nil {
			c.logger.Warn("loader cache write failed", "key", key, "error", err)
		}
	}
	return doc, nil
}

func (c *Cached) lookup(ctx context.Context, key string) (Document, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("loader cache read failed", "key", key, "error", err)
		return Document{}, false
	}
	if !ok {
		return Document{}, false
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.logger.Warn("loader cache entry corrupt", "key", key, "error", err)
		return Document{}, false
	}
	return doc, true
}

func (c *Cached) key(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return "loader:" + c.mode + ":" + hex.EncodeToString(sum[:])
}
