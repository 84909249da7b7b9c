// Package loader fetches a web page and reduces it to its readable text.
package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// Document is the text of one page plus what is known about it.
type Document struct {
	Metadata    map[string]any `json:"metadata"`
	PageContent string         `json:"page_content"`
}

// Loader loads the document behind a URL.
type Loader interface {
	Load(ctx context.Context, rawURL string) (Document, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, rawURL string) (Document, error)

func (f LoaderFunc) Load(ctx context.Context, rawURL string) (Document, error) {
	return f(ctx, rawURL)
}

const defaultMaxPageBytes = 10 << 20

// Static fetches the raw HTML over plain HTTP. Pages that build their
// content with JavaScript come back mostly empty; use Browser for those.
type Static struct {
	Client    *http.Client
	UserAgent string
	// MaxBytes caps the body read. Zero means 10 MiB.
	MaxBytes int64
}

// NewStatic returns a static loader with a bounded HTTP client.
func NewStatic(timeout time.Duration) *Static {
	return &Static{Client: &http.Client{Timeout: timeout}}
}

func (s *Static) Load(ctx context.Context, rawURL string) (Document, error) {
	if err := checkURL(rawURL); err != nil {
		return Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Document{}, domain.InvalidInput("bad url %q: %v", rawURL, err)
	}
	ua := s.UserAgent
	if ua == "" {
		ua = "monkey-tools-text/loader"
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Document{}, domain.ExternalCallTimeout("fetch "+rawURL, err)
		}
		return Document{}, domain.DownloadFailed(rawURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, domain.DownloadFailed(rawURL, resp.StatusCode, nil)
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = defaultMaxPageBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return Document{}, domain.DownloadFailed(rawURL, resp.StatusCode, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "text/plain") {
		return Document{
			Metadata:    map[string]any{"source": rawURL, "content_type": contentType},
			PageContent: strings.TrimSpace(string(body)),
		}, nil
	}

	doc, err := FromHTML(rawURL, string(body))
	if err != nil {
		return Document{}, domain.ExternalCallFailure("parse "+rawURL, err)
	}
	if contentType != "" {
		doc.Metadata["content_type"] = contentType
	}
	return doc, nil
}

func checkURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return domain.InvalidInput("bad url %q: %v", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.InvalidInput("url %q must be http or https", rawURL)
	}
	if u.Host == "" {
		return domain.InvalidInput("url %q has no host", rawURL)
	}
	return nil
}
