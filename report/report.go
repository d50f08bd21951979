// Package report renders processing results as deterministic text and
// persists JSON summaries.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/use-agent/harvest/models"
)

const rule = "============================================================"

// Write renders a human-readable report for one processed URL. The
// output is deterministic for a given result: field order and wording
// never vary between runs.
func Write(w io.Writer, url string, result models.ProcessingResult) {
	fmt.Fprintf(w, "\n%s\nProcessing: %s\n%s\n", rule, url, rule)

	switch result.Kind {
	case models.KindFileDownload:
		fmt.Fprintf(w, "Detected downloadable file: %s\n", url)
		writeDownload(w, result.Download)
	default:
		writeWebpage(w, result.Scrape)
	}

	if result.ArtifactPath != "" {
		fmt.Fprintf(w, "Artifact: %s\n", result.ArtifactPath)
	}
}

func writeDownload(w io.Writer, dr *models.DownloadResult) {
	if dr == nil {
		fmt.Fprintln(w, "✗ Download failed: no result")
		return
	}
	if !dr.Success {
		fmt.Fprintf(w, "✗ Download failed: %s\n", dr.Error)
		return
	}
	fmt.Fprintln(w, "✓ Downloaded file successfully:")
	if dr.S3URL != "" {
		fmt.Fprintf(w, "  S3 URL: %s\n", dr.S3URL)
	}
	if dr.LocalPath != "" {
		fmt.Fprintf(w, "  Local path: %s\n", dr.LocalPath)
	}
	fmt.Fprintf(w, "  File size: %d bytes\n", dr.FileSize)
	fmt.Fprintf(w, "  Content type: %s\n", dr.ContentType)
}

func writeWebpage(w io.Writer, sr *models.ScrapeResult) {
	if sr == nil {
		fmt.Fprintln(w, "✗ Scraping failed: no result")
		return
	}
	if sr.Success {
		fmt.Fprintf(w, "✓ Scraped webpage: %s\n", sr.URL)
		fmt.Fprintf(w, "  Status: %d\n", sr.StatusCode)
		fmt.Fprintf(w, "  HTML length: %d chars\n", len(sr.HTML))
		return
	}

	if sr.ErrorType == models.ErrorLoginRequired {
		fmt.Fprintln(w, "Login/Authentication Required")
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, sr.Message)
		fmt.Fprintln(w, "Please:")
		writeNumbered(w, sr.Instructions)
		fmt.Fprintln(w, rule)
		return
	}

	fmt.Fprintf(w, "✗ Scraping failed: %s\n", sr.Message)
	fmt.Fprintln(w, rule)
	if len(sr.PossibleCauses) > 0 {
		fmt.Fprintln(w, "This could be due to:")
		for _, cause := range sr.PossibleCauses {
			fmt.Fprintf(w, "  - %s\n", cause)
		}
	}
	fmt.Fprintln(w, "\nPlease try:")
	writeNumbered(w, sr.Instructions)
	fmt.Fprintln(w, rule)
}

func writeNumbered(w io.Writer, items []string) {
	for i, item := range items {
		fmt.Fprintf(w, "  %d. %s\n", i+1, item)
	}
}

// Render returns the report for one result as a string.
func Render(url string, result models.ProcessingResult) string {
	var sb strings.Builder
	Write(&sb, url, result)
	return sb.String()
}
