// Package s3 stores tool outputs in an S3-compatible bucket (AWS S3, MinIO,
// Volcengine TOS and the like) through minio-go.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ports"
)

// Config locates the bucket.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// PathStyle addresses the bucket as <endpoint>/<bucket> instead of
	// <bucket>.<endpoint>.
	PathStyle bool `mapstructure:"path_style"`
	// PublicURL is the base of returned object URLs, typically a CDN domain.
	// When empty the URL is derived from the endpoint.
	PublicURL string `mapstructure:"public_url"`
}

func (c Config) validate() error {
	var missing []string
	if c.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if len(missing) > 0 {
		return fmt.Errorf("s3 storage: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Store implements ports.ObjectStore on a bucket.
type Store struct {
	client *minio.Client
	cfg    Config
}

// New connects to the endpoint. No request is made until the first Put.
func New(cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	lookup := minio.BucketLookupAuto
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &Store{client: client, cfg: cfg}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.cfg.Bucket, err)
	}
	if ok {
		return nil
	}
	return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region})
}

func (s *Store) Put(ctx context.Context, key, path, contentType string) (domain.StoredArtifact, error) {
	key = strings.TrimLeft(key, "/")
	_, err := s.client.FPutObject(ctx, s.cfg.Bucket, key, path, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("put %s/%s: %w", s.cfg.Bucket, key, err)
	}
	return domain.StoredArtifact{URL: s.URL(key), Key: key}, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key = strings.TrimLeft(key, "/")
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", s.cfg.Bucket, key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ports.ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("stat %s/%s: %w", s.cfg.Bucket, key, err)
	}
	return obj, nil
}

// URL returns the public URL of key.
func (s *Store) URL(key string) string {
	return ObjectURL(s.cfg, key)
}

// ObjectURL builds the public URL of key under cfg.
func ObjectURL(cfg Config, key string) string {
	escaped := escapeKey(strings.TrimLeft(key, "/"))
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/") + "/" + escaped
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	if cfg.PathStyle {
		return fmt.Sprintf("%s://%s/%s/%s", scheme, cfg.Endpoint, cfg.Bucket, escaped)
	}
	return fmt.Sprintf("%s://%s.%s/%s", scheme, cfg.Bucket, cfg.Endpoint, escaped)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

var _ ports.ObjectStore = (*Store)(nil)

// IsNotFound reports whether err is a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ports.ErrObjectNotFound)
}
