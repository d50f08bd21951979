package models

// Kind identifies which handler produced a ProcessingResult.
type Kind string

const (
	// KindFileDownload routes the URL to the file downloader.
	KindFileDownload Kind = "file_download"

	// KindWebpage routes the URL to the browser-based scraper.
	KindWebpage Kind = "webpage"
)

// ErrorType classifies why a scrape produced no usable content.
type ErrorType string

const (
	// ErrorLoginRequired means the page rendered but is gated behind
	// authentication or a paywall. The transport itself succeeded.
	ErrorLoginRequired ErrorType = "login_required"

	// ErrorScrapingFailed means a browser step failed (navigation,
	// timeout, network) before usable content was captured.
	ErrorScrapingFailed ErrorType = "scraping_failed"
)

// ScrapeResult is the outcome of one webpage scrape.
//
// Invariants (enforced by the constructors below):
//   - Success implies HTML is non-empty and ErrorType is empty.
//   - !Success implies ErrorType and Message are set.
type ScrapeResult struct {
	Success bool `json:"success"`

	// URL is the final URL after redirects for successful scrapes,
	// or the requested URL for failures.
	URL string `json:"url"`

	// StatusCode is the HTTP status of the final navigation.
	// Zero when the scrape failed or the page was login-gated.
	StatusCode int `json:"status_code,omitempty"`

	// HTML is the fully rendered page content. Empty on failure.
	HTML string `json:"html,omitempty"`

	ErrorType ErrorType `json:"error_type,omitempty"`
	Message   string    `json:"message,omitempty"`

	// Instructions suggest manual steps the caller can take.
	Instructions []string `json:"instructions,omitempty"`

	// PossibleCauses lists likely reasons for a scraping failure.
	PossibleCauses []string `json:"possible_causes,omitempty"`
}

// Advisory text attached to failed scrapes. Order is part of the
// output contract of the report package, so these are fixed slices.
var (
	scrapeFailureCauses = []string{
		"Login/authentication requirements",
		"Anti-bot protection",
		"Network restrictions",
		"Page loading issues",
	}

	scrapeFailureInstructions = []string{
		"Visit the page manually in your browser",
		"Copy and paste the content you need",
	}

	loginInstructions = []string{
		"Visit the page manually in your browser",
		"Log in if required",
		"Copy and paste the content you need",
	}
)

// ScrapeSuccess builds a successful ScrapeResult.
func ScrapeSuccess(finalURL string, statusCode int, html string) *ScrapeResult {
	return &ScrapeResult{
		Success:    true,
		URL:        finalURL,
		StatusCode: statusCode,
		HTML:       html,
	}
}

// ScrapeLoginRequired builds the login-wall failure result.
//
// The rendered HTML and status code are deliberately not carried over:
// content behind an authentication wall is treated as inaccessible, not
// partially usable.
func ScrapeLoginRequired(url string) *ScrapeResult {
	return &ScrapeResult{
		Success:      false,
		URL:          url,
		ErrorType:    ErrorLoginRequired,
		Message:      "Sorry, this page requires authentication: " + url + ".",
		Instructions: loginInstructions,
	}
}

// ScrapeFailed builds the step-failure result with the fixed advisory text.
func ScrapeFailed(url string, detail string) *ScrapeResult {
	if detail == "" {
		detail = "unknown error"
	}
	return &ScrapeResult{
		Success:        false,
		URL:            url,
		ErrorType:      ErrorScrapingFailed,
		Message:        "Unable to access page automatically: " + detail,
		Instructions:   scrapeFailureInstructions,
		PossibleCauses: scrapeFailureCauses,
	}
}

// DownloadResult is the outcome of one file download.
//
// Invariants: Success implies LocalPath or S3URL is set; !Success
// implies Error is set.
type DownloadResult struct {
	Success bool `json:"success"`

	// LocalPath is where the file landed on disk (local store).
	LocalPath string `json:"local_path,omitempty"`

	// S3URL is the public object URL (S3 store).
	S3URL string `json:"s3_url,omitempty"`

	FileSize    int64  `json:"file_size,omitempty"`
	ContentType string `json:"content_type,omitempty"`

	Error string `json:"error,omitempty"`
}

// DownloadSuccessLocal builds a successful local-store result.
func DownloadSuccessLocal(path string, size int64, contentType string) *DownloadResult {
	return &DownloadResult{
		Success:     true,
		LocalPath:   path,
		FileSize:    size,
		ContentType: contentType,
	}
}

// DownloadSuccessS3 builds a successful S3-store result.
func DownloadSuccessS3(objectURL string, size int64, contentType string) *DownloadResult {
	return &DownloadResult{
		Success:     true,
		S3URL:       objectURL,
		FileSize:    size,
		ContentType: contentType,
	}
}

// DownloadFailed builds a failed download result.
func DownloadFailed(reason string) *DownloadResult {
	if reason == "" {
		reason = "unknown error"
	}
	return &DownloadResult{Success: false, Error: reason}
}

// ProcessingResult is the per-URL outcome produced by the orchestrator.
// Exactly one of Scrape / Download is non-nil, matching Kind. Values
// are fully populated at construction and never mutated afterwards.
type ProcessingResult struct {
	Kind Kind `json:"type"`

	Scrape   *ScrapeResult   `json:"scrape_result,omitempty"`
	Download *DownloadResult `json:"download_result,omitempty"`

	// ArtifactPath points at the markdown or file artifact produced
	// for a successful result, when artifact writing is enabled.
	ArtifactPath string `json:"artifact_path,omitempty"`

	// DuplicateOf names another URL in the same batch whose captured
	// content is near-identical to this one. Set by the batch
	// orchestrator, empty for single-URL processing.
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

// WebpageResult wraps a ScrapeResult into a ProcessingResult.
func WebpageResult(sr *ScrapeResult) ProcessingResult {
	return ProcessingResult{Kind: KindWebpage, Scrape: sr}
}

// FileDownloadResult wraps a DownloadResult into a ProcessingResult.
func FileDownloadResult(dr *DownloadResult) ProcessingResult {
	return ProcessingResult{Kind: KindFileDownload, Download: dr}
}

// OK reports whether the underlying handler succeeded.
func (r ProcessingResult) OK() bool {
	switch r.Kind {
	case KindWebpage:
		return r.Scrape != nil && r.Scrape.Success
	case KindFileDownload:
		return r.Download != nil && r.Download.Success
	default:
		return false
	}
}
