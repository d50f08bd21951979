package classify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/use-agent/harvest/fetch"
)

// HeadProber implements HeaderProber with a HEAD request over the
// shared Chrome-fingerprint client. Redirects are followed so the
// content-type reflects the final resource.
type HeadProber struct {
	client *http.Client
}

// NewHeadProber creates a HeadProber.
func NewHeadProber() *HeadProber {
	return &HeadProber{client: fetch.NewClient()}
}

// Probe issues a single HEAD request and returns the content-type
// header of the final response.
func (p *HeadProber) Probe(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("probe: build request: %w", err)
	}
	fetch.SetBrowserHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()

	return resp.Header.Get("Content-Type"), nil
}
