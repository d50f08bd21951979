package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/use-agent/harvest/dedupe"
	"github.com/use-agent/harvest/models"
)

// ProcessAll runs Process for every URL with bounded concurrency and
// returns one result per distinct URL. Duplicate URLs are each
// processed; the result that finishes last wins the map slot.
//
// onProgress, when non-nil, is called after each URL completes with the
// number of finished URLs so far.
func (o *Orchestrator) ProcessAll(ctx context.Context, urls []string, saveArtifact bool, onProgress func(done int)) map[string]models.ProcessingResult {
	start := time.Now()

	results := make(map[string]models.ProcessingResult, len(urls))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, o.concurrency)

	done := 0
	for _, rawURL := range urls {
		wg.Add(1)
		go func(targetURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := o.processGuarded(ctx, models.ProcessRequest{
				URL:          targetURL,
				SaveArtifact: saveArtifact,
			})

			mu.Lock()
			results[targetURL] = result
			done++
			completed := done
			mu.Unlock()

			if onProgress != nil {
				onProgress(completed)
			}
		}(rawURL)
	}
	wg.Wait()

	markDuplicates(urls, results)

	succeeded := 0
	for _, r := range results {
		if r.OK() {
			succeeded++
		}
	}
	slog.Info("batch finished",
		"urls", len(urls),
		"distinct", len(results),
		"succeeded", succeeded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return results
}

// markDuplicates flags batch URLs whose captured content is
// near-identical to an earlier URL in the request. The first occurrence
// in request order stays canonical; later matches get DuplicateOf set.
func markDuplicates(urls []string, results map[string]models.ProcessingResult) {
	type entry struct {
		url string
		fp  uint64
	}
	var seen []entry
	visited := make(map[string]struct{}, len(urls))

	for _, rawURL := range urls {
		if _, done := visited[rawURL]; done {
			continue
		}
		visited[rawURL] = struct{}{}

		result, ok := results[rawURL]
		if !ok || result.Kind != models.KindWebpage || !result.OK() {
			continue
		}

		fp := dedupe.Fingerprint(result.Scrape.HTML)
		matched := false
		for _, e := range seen {
			if dedupe.Similar(e.fp, fp, dedupe.DefaultThreshold) {
				result.DuplicateOf = e.url
				results[rawURL] = result
				matched = true
				break
			}
		}
		if !matched {
			seen = append(seen, entry{url: rawURL, fp: fp})
		}
	}
}
