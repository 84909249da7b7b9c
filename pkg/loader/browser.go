package loader

import (
	"context"
	"errors"

	"github.com/chromedp/chromedp"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// Browser renders the page in headless Chrome before extracting its text,
// so content produced by scripts is included.
type Browser struct {
	// ExecPath points at the Chrome or Chromium binary. Empty means the
	// usual install locations are searched.
	ExecPath string
	// WaitSelector is awaited before the DOM is read. Defaults to "body".
	WaitSelector string
}

func (b *Browser) Load(ctx context.Context, rawURL string) (Document, error) {
	if err := checkURL(rawURL); err != nil {
		return Document{}, err
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if b.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	wait := b.WaitSelector
	if wait == "" {
		wait = "body"
	}

	var page string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady(wait, chromedp.ByQuery),
		chromedp.OuterHTML("html", &page, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Document{}, domain.ExternalCallTimeout("browser "+rawURL, err)
		}
		return Document{}, domain.ExternalCallFailure("browser "+rawURL, err)
	}

	doc, err := FromHTML(rawURL, page)
	if err != nil {
		return Document{}, domain.ExternalCallFailure("parse "+rawURL, err)
	}
	doc.Metadata["rendered"] = true
	return doc, nil
}
