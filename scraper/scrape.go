package scraper

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/harvest/models"
	"github.com/ysmood/gson"
)

// Scrape renders url with the fixed navigate → scroll → extract plan
// and returns a fully populated ScrapeResult. It never returns an
// error: step failures and login walls land in the result.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Timeout guard   – hard deadline on the entire operation
//  2. Acquire page    – borrow a tab from the pool, exclusively
//  3. DEFER: cleanup  – about:blank + return to pool (leak prevention)
//  4. Stealth + headers – must be installed before navigation
//  5. Hijack mount    – block images/CSS/fonts/media (before navigation!)
//  6. Run plan        – strictly ordered steps, state threaded forward
//  7. Wall check      – on the fully rendered HTML only
func (s *Scraper) Scrape(ctx context.Context, rawURL string) *models.ScrapeResult {
	// ── 1. Timeout guard ────────────────────────────────────────────
	timeout := s.scraperCfg.PageTimeout
	if timeout > s.scraperCfg.MaxTimeout {
		timeout = s.scraperCfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// ── 2. Acquire page from pool ───────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		slog.Error("failed to acquire page from pool", "url", rawURL, "error", acquireErr)
		return models.ScrapeFailed(rawURL, "browser unavailable: "+acquireErr.Error())
	}

	// ── 3. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		s.pagePool.Put(page)
	}()

	// ── 4. Stealth injection + browser-like headers ─────────────────
	if s.scraperCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}
	setRefererHeader(page, rawURL)

	// ── 5. Mount hijack router (blocks Image/Stylesheet/Font/Media) ─
	router := setupHijack(page, s.scraperCfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Run the fixed plan ───────────────────────────────────────
	sess := &Session{page: page}
	state, err := RunSteps(ctx, s.capturer, sess, rawURL, s.plan())

	// ── 7. Build the result ─────────────────────────────────────────
	result := s.buildResult(rawURL, state, err)
	if result.Success {
		slog.Info("scraped webpage",
			"url", result.URL,
			"status", result.StatusCode,
			"htmlBytes", len(result.HTML),
		)
	} else {
		slog.Warn("scrape failed",
			"url", rawURL,
			"errorType", result.ErrorType,
			"message", result.Message,
		)
	}
	return result
}

// plan builds the fixed step sequence for dynamic pages:
// navigate and wait for the body, scroll to the bottom with a settle
// delay for lazy content, then extract the final HTML.
//
// The steps are validated constants as far as the runner is concerned;
// construction can only fail on nonsensical config, which is treated
// as a programming error.
func (s *Scraper) plan() []Step {
	navigate, err := NewNavigateStep(s.scraperCfg.WaitSelector, s.scraperCfg.PageTimeout)
	if err != nil {
		panic(err)
	}
	scroll, err := NewScrollStep(s.scraperCfg.ScrollDelay, s.scraperCfg.ScrollTimeout)
	if err != nil {
		panic(err)
	}
	extract, err := NewExtractStep(s.scraperCfg.PageTimeout)
	if err != nil {
		panic(err)
	}
	return []Step{navigate, scroll, extract}
}

// buildResult maps a finished (or aborted) step sequence to the
// uniform ScrapeResult shape.
//
// The login branch deliberately discards the fetched HTML and status
// code: content behind an authentication wall is treated as
// inaccessible rather than partially usable.
func (s *Scraper) buildResult(rawURL string, state StepState, err error) *models.ScrapeResult {
	if err != nil {
		return models.ScrapeFailed(rawURL, err.Error())
	}
	if state.HTML == "" {
		return models.ScrapeFailed(rawURL, "no content captured")
	}
	if s.detectWall != nil && s.detectWall(state.HTML) {
		return models.ScrapeLoginRequired(rawURL)
	}
	return models.ScrapeSuccess(state.FinalURL, state.StatusCode, state.HTML)
}

// setRefererHeader makes the first navigation look like a click-through
// from a Google search for the target's hostname.
func setRefererHeader(page *rod.Page, rawURL string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	headers := proto.NetworkHeaders{
		"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: headers}.Call(page)
}
