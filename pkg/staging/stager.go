package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ports"
	"github.com/sourcegraph/conc/pool"
)

// DefaultKeyPrefix is prepended to every uploaded object key.
const DefaultKeyPrefix = "workflow/artifact"

const inputsDir = "inputs"

// Stager moves files between URLs, the task workspace and durable storage.
type Stager struct {
	client          *http.Client
	store           ports.ObjectStore
	prefix          string
	maxBytes        int64
	downloadTimeout time.Duration
	uploadTimeout   time.Duration
	parallel        int
	logger          *slog.Logger
}

// Option configures a Stager.
type Option func(*Stager)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Stager) {
		s.client = c
	}
}

// WithKeyPrefix sets the object key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Stager) {
		s.prefix = strings.Trim(prefix, "/")
	}
}

// WithMaxDownloadBytes rejects downloads larger than n bytes. Zero disables the limit.
func WithMaxDownloadBytes(n int64) Option {
	return func(s *Stager) {
		s.maxBytes = n
	}
}

// WithTimeouts bounds each download and upload.
func WithTimeouts(download, upload time.Duration) Option {
	return func(s *Stager) {
		s.downloadTimeout = download
		s.uploadTimeout = upload
	}
}

// WithParallelism caps concurrent downloads in StageInputs.
func WithParallelism(n int) Option {
	return func(s *Stager) {
		if n > 0 {
			s.parallel = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stager) {
		s.logger = l
	}
}

// New creates a Stager that uploads into store.
func New(store ports.ObjectStore, opts ...Option) *Stager {
	s := &Stager{
		client:   http.DefaultClient,
		store:    store,
		prefix:   DefaultKeyPrefix,
		parallel: 4,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StageInput downloads url into the inputs directory of ws and returns the
// local path. The file is named after the final path segment of the URL.
// Staging the same URL twice overwrites the first copy.
func (s *Stager) StageInput(ctx context.Context, ws *Workspace, rawURL string) (string, error) {
	dir, err := ws.Sub(inputsDir)
	if err != nil {
		return "", err
	}
	return s.download(ctx, dir, rawURL)
}

// StageInputs downloads several URLs concurrently. Each file lands in its
// own inputs/<i>/ directory so equal names do not collide. Paths are
// returned in input order; the first failure cancels the rest.
func (s *Stager) StageInputs(ctx context.Context, ws *Workspace, urls []string) ([]string, error) {
	paths := make([]string, len(urls))
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(s.parallel)
	for i, u := range urls {
		p.Go(func(ctx context.Context) error {
			dir, err := ws.Sub(inputsDir, strconv.Itoa(i))
			if err != nil {
				return err
			}
			local, err := s.download(ctx, dir, u)
			if err != nil {
				return err
			}
			paths[i] = local
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// StageOutput uploads a local file to <prefix>/<taskId>/<suggestedKey>.
func (s *Stager) StageOutput(ctx context.Context, localPath, taskID, suggestedKey string) (domain.StoredArtifact, error) {
	key := s.Key(taskID, suggestedKey)
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	start := time.Now()
	artifact, err := s.store.Put(ctx, key, localPath, contentType)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.StoredArtifact{}, domain.ExternalCallTimeout("upload of "+key, err)
		}
		return domain.StoredArtifact{}, domain.UploadFailed(key, err)
	}
	s.logger.Debug("staged output", "task_id", taskID, "key", key, "duration", time.Since(start))
	return artifact, nil
}

// Key builds the object key for a task output.
func (s *Stager) Key(taskID, suggestedKey string) string {
	parts := []string{taskID, strings.TrimLeft(suggestedKey, "/")}
	if s.prefix != "" {
		parts = append([]string{s.prefix}, parts...)
	}
	return path.Join(parts...)
}

func (s *Stager) download(ctx context.Context, dir, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", domain.DownloadFailed(rawURL, 0, fmt.Errorf("unsupported url %q", rawURL))
	}

	if s.downloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.downloadTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", domain.DownloadFailed(rawURL, 0, err)
	}
	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.ExternalCallTimeout("download of "+rawURL, err)
		}
		return "", domain.DownloadFailed(rawURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.DownloadFailed(rawURL, resp.StatusCode, nil)
	}
	if s.maxBytes > 0 && resp.ContentLength > s.maxBytes {
		return "", domain.DownloadFailed(rawURL, resp.StatusCode, fmt.Errorf("content length %d exceeds limit %d", resp.ContentLength, s.maxBytes))
	}

	dest := filepath.Join(dir, FileName(u))
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	var body io.Reader = resp.Body
	if s.maxBytes > 0 {
		body = io.LimitReader(resp.Body, s.maxBytes+1)
	}
	n, err := io.Copy(tmp, body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.ExternalCallTimeout("download of "+rawURL, err)
		}
		return "", domain.DownloadFailed(rawURL, resp.StatusCode, err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return "", domain.DownloadFailed(rawURL, resp.StatusCode, fmt.Errorf("body exceeds limit %d", s.maxBytes))
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("move download into place: %w", err)
	}

	s.logger.Debug("staged input", "url", rawURL, "path", dest, "bytes", n, "duration", time.Since(start))
	return dest, nil
}

// FileName derives a local file name from the final path segment of u.
func FileName(u *url.URL) string {
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = filepath.Base(filepath.FromSlash(name))
	if name == "" || name == "." || name == "/" || name == string(filepath.Separator) || name == ".." {
		return "input"
	}
	return name
}
