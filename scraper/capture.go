package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// Session is a live browser page reserved for one URL's step sequence.
// It preserves navigation and cookie state across steps and must not be
// shared across concurrent URLs.
type Session struct {
	page *rod.Page
}

// rodCapturer executes steps against a Session's rod page.
type rodCapturer struct{}

// Capture runs one step. The navigate and extract steps report HTML;
// scroll and wait only mutate page state and report the current
// URL/status so the runner can carry redirects forward.
func (c *rodCapturer) Capture(ctx context.Context, sess *Session, url string, step Step) (*Capture, error) {
	if sess == nil || sess.page == nil {
		return nil, errors.New("capture: no session")
	}
	p := sess.page.Context(ctx)

	switch step.Kind {
	case StepNavigate:
		return c.navigate(p, url, step)
	case StepScroll:
		return c.scroll(ctx, p, step)
	case StepWait:
		return c.wait(ctx, p, step)
	case StepExtract:
		return c.extract(p)
	default:
		return nil, fmt.Errorf("capture: unknown step kind %q", step.Kind)
	}
}

func (c *rodCapturer) navigate(p *rod.Page, url string, step Step) (*Capture, error) {
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitElementsMoreThan(step.WaitSelector, 0); err != nil {
		return nil, fmt.Errorf("wait for %q: %w", step.WaitSelector, err)
	}
	// Let the initial render settle before the first extraction.
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		// Non-converging DOMs (tickers, ads) are common; proceed with
		// whatever is rendered.
		_ = err
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("extract after navigate: %w", err)
	}
	return &Capture{
		HTML:       html,
		FinalURL:   pageLocation(p, url),
		StatusCode: pageStatusCode(p),
	}, nil
}

func (c *rodCapturer) scroll(ctx context.Context, p *rod.Page, step Step) (*Capture, error) {
	if _, err := p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return nil, fmt.Errorf("scroll to bottom: %w", err)
	}
	if err := sleepCtx(ctx, step.Delay); err != nil {
		return nil, err
	}
	return &Capture{
		FinalURL:   pageLocation(p, ""),
		StatusCode: pageStatusCode(p),
	}, nil
}

func (c *rodCapturer) wait(ctx context.Context, p *rod.Page, step Step) (*Capture, error) {
	_ = p.WaitDOMStable(300*time.Millisecond, 0.1)
	if err := sleepCtx(ctx, step.Delay); err != nil {
		return nil, err
	}
	return &Capture{
		FinalURL:   pageLocation(p, ""),
		StatusCode: pageStatusCode(p),
	}, nil
}

func (c *rodCapturer) extract(p *rod.Page) (*Capture, error) {
	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("extract page HTML: %w", err)
	}
	return &Capture{
		HTML:       html,
		FinalURL:   pageLocation(p, ""),
		StatusCode: pageStatusCode(p),
	}, nil
}

// pageStatusCode reads the document's HTTP status via the performance
// API. No CDP event listeners are needed, which avoids conflicts with
// the hijack router's use of the Fetch domain.
func pageStatusCode(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// pageLocation reads window.location.href, falling back to the given
// URL when evaluation fails.
func pageLocation(p *rod.Page, fallback string) string {
	res, err := p.Eval(`() => window.location.href`)
	if err != nil {
		return fallback
	}
	if href := res.Value.Str(); href != "" {
		return href
	}
	return fallback
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
