// Package orchestrator routes URLs through classification into the
// scraping or download pipeline and assembles per-URL results.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/models"
)

// Classifier decides whether a URL is a downloadable file or a webpage.
type Classifier interface {
	Classify(ctx context.Context, rawURL string) models.Kind
}

// Scraper renders a webpage and returns its outcome. Implementations
// never return an error; failures are encoded in the result.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) *models.ScrapeResult
}

// Downloader fetches a file and persists it. Implementations never
// return an error; failures are encoded in the result.
type Downloader interface {
	Download(ctx context.Context, rawURL string) *models.DownloadResult
}

// Cleaner converts raw HTML into markdown.
type Cleaner interface {
	Clean(rawHTML, sourceURL string, opts ...cleaner.Options) (string, error)
}

// Orchestrator coordinates the per-URL workflow: classify, route to the
// scraper or downloader, and optionally write an artifact.
type Orchestrator struct {
	classifier  Classifier
	scraper     Scraper
	downloader  Downloader
	cleaner     Cleaner
	concurrency int
}

// New constructs an Orchestrator. Concurrency caps how many URLs
// ProcessAll works on at once; values below 1 are bumped to 1.
func New(cl Classifier, sc Scraper, dl Downloader, cn Cleaner, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		classifier:  cl,
		scraper:     sc,
		downloader:  dl,
		cleaner:     cn,
		concurrency: concurrency,
	}
}

// Process runs the full workflow for one URL. It never returns an
// error: every failure mode is encoded in the ProcessingResult.
func (o *Orchestrator) Process(ctx context.Context, req models.ProcessRequest) models.ProcessingResult {
	req.Defaults()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	kind := o.classifier.Classify(ctx, req.URL)

	var result models.ProcessingResult
	switch kind {
	case models.KindFileDownload:
		result = models.FileDownloadResult(o.downloader.Download(ctx, req.URL))
	default:
		result = models.WebpageResult(o.scraper.Scrape(ctx, req.URL))
	}

	if req.SaveArtifact && result.OK() {
		result.ArtifactPath = o.writeArtifact(result)
	}

	slog.Info("url processed",
		"url", req.URL,
		"type", kind,
		"success", result.OK(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

// writeArtifact persists a successful result as a file: markdown for
// webpages, a copy of the download for files. Artifact failures are
// logged but never fail the result.
func (o *Orchestrator) writeArtifact(result models.ProcessingResult) string {
	writer, err := cleaner.NewArtifactWriter()
	if err != nil {
		slog.Warn("artifact writer unavailable", "error", err)
		return ""
	}

	switch result.Kind {
	case models.KindWebpage:
		markdown, err := o.cleaner.Clean(result.Scrape.HTML, result.Scrape.URL)
		if err != nil {
			slog.Warn("artifact conversion failed", "url", result.Scrape.URL, "error", err)
			writer.Cleanup()
			return ""
		}
		path, err := writer.WriteMarkdown(markdown)
		if err != nil {
			slog.Warn("artifact write failed", "url", result.Scrape.URL, "error", err)
			writer.Cleanup()
			return ""
		}
		return path

	case models.KindFileDownload:
		if result.Download.LocalPath == "" {
			// S3-backed downloads have no local file to copy.
			writer.Cleanup()
			return ""
		}
		path, err := writer.CopyDocument(result.Download.LocalPath)
		if err != nil {
			slog.Warn("artifact copy failed", "path", result.Download.LocalPath, "error", err)
			writer.Cleanup()
			return ""
		}
		return path
	}
	writer.Cleanup()
	return ""
}

// processGuarded wraps Process with panic recovery so one bad URL can
// never take down a batch.
func (o *Orchestrator) processGuarded(ctx context.Context, req models.ProcessRequest) (result models.ProcessingResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("url processing panicked", "url", req.URL, "panic", r)
			result = models.WebpageResult(
				models.ScrapeFailed(req.URL, fmt.Sprintf("internal error: %v", r)))
		}
	}()
	return o.Process(ctx, req)
}
