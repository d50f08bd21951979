// Package classify decides whether a URL should be handed to the file
// downloader or the browser-based webpage scraper.
package classify

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

// HeaderProber issues a header-only request and returns the
// content-type, or an error on any network failure.
type HeaderProber interface {
	Probe(ctx context.Context, rawURL string) (contentType string, err error)
}

// Classifier routes URLs by extension first, falling back to a
// content-type probe. It is safe for concurrent use.
type Classifier struct {
	cfg    config.ClassifyConfig
	prober HeaderProber
	cache  *cache.Cache
}

// New creates a Classifier. cache may be nil to disable memoization.
func New(cfg config.ClassifyConfig, prober HeaderProber, c *cache.Cache) *Classifier {
	return &Classifier{cfg: cfg, prober: prober, cache: c}
}

// Classify returns the routing decision for a URL.
//
// A URL whose path ends in a known file extension is classified without
// any network traffic. Otherwise a single header probe runs; probe
// failures never surface to the caller and resolve to the webpage route.
func (c *Classifier) Classify(ctx context.Context, rawURL string) models.Kind {
	if c.matchesExtension(rawURL) {
		return models.KindFileDownload
	}

	if c.cache != nil {
		if kind, ok := c.cache.Get(rawURL); ok {
			return kind
		}
	}

	kind := c.classifyByProbe(ctx, rawURL)

	if c.cache != nil {
		c.cache.Set(rawURL, kind)
	}
	return kind
}

// matchesExtension checks the URL path suffix against the configured
// extension set.
func (c *Classifier) matchesExtension(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, ext := range c.cfg.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// classifyByProbe issues exactly one header probe and inspects the
// returned content-type against the configured MIME prefixes.
func (c *Classifier) classifyByProbe(ctx context.Context, rawURL string) models.Kind {
	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	contentType, err := c.prober.Probe(probeCtx, rawURL)
	if err != nil {
		slog.Debug("content-type probe failed", "url", rawURL, "error", err)
		return resolveAmbiguous()
	}

	contentType = strings.ToLower(contentType)
	if contentType == "" {
		return resolveAmbiguous()
	}
	for _, prefix := range c.cfg.ContentTypePrefixes {
		if strings.Contains(contentType, prefix) {
			return models.KindFileDownload
		}
	}
	return models.KindWebpage
}

// resolveAmbiguous is the fail-open policy for ambiguous classification:
// when the probe errors, times out, or reports no usable content-type,
// the URL is routed to the webpage handler. The scraper can render
// anything, while the downloader only makes sense for known file types.
func resolveAmbiguous() models.Kind {
	return models.KindWebpage
}
