// Package cleaner turns rendered HTML into a compact markdown artifact.
package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// minContentLength is the minimum TextContent length (in characters)
// for readability output to be considered valid. Below this threshold
// the algorithm is assumed to have missed the main content and the raw
// HTML is used instead.
const minContentLength = 50

// Cleaner runs the two-stage cleaning pipeline:
//
//	Stage 1 (readability): extract main content, strip nav/footer/ads
//	Stage 2 (markdown):    convert clean HTML → Markdown
//
// The converter is created once and reused across all requests
// (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
}

// NewCleaner initialises the Cleaner with a pre-configured Markdown
// converter.
func NewCleaner() *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
	}
}

// Options carries optional filtering for the pipeline.
type Options struct {
	// CSSSelector, when set, limits cleaning to the matched elements'
	// outer HTML.
	CSSSelector string
}

// Clean converts rendered HTML to markdown. Readability failures fall
// back to converting the full HTML; the pipeline never fails just
// because extraction choked.
func (c *Cleaner) Clean(rawHTML, sourceURL string, opts ...Options) (string, error) {
	if len(opts) > 0 && opts[0].CSSSelector != "" {
		filtered, err := applyCSSSelector(rawHTML, opts[0].CSSSelector)
		if err != nil {
			return "", err
		}
		rawHTML = filtered
	}

	article := extractContent(rawHTML, sourceURL)
	return toMarkdown(c.mdConverter, article.Content, sourceURL)
}

// extractContent runs the Mozilla Readability algorithm on rawHTML,
// falling back to the raw HTML whenever extraction fails or produces
// suspiciously little text.
func extractContent(rawHTML, sourceURL string) readability.Article {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, using raw HTML",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, using raw HTML",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML)
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Warn("readability: extracted content too short, using raw HTML",
			"url", sourceURL, "length", len(article.TextContent),
		)
		return fallbackArticle(rawHTML)
	}

	return article
}

// fallbackArticle wraps raw HTML into an Article so the pipeline can
// proceed uniformly regardless of whether readability succeeded.
func fallbackArticle(rawHTML string) readability.Article {
	return readability.Article{
		Content:     rawHTML,
		TextContent: rawHTML,
	}
}
