package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

func TestRender_SuccessfulScrape(t *testing.T) {
	result := models.WebpageResult(models.ScrapeSuccess("https://example.com/final", 200, "<p>hello</p>"))
	out := Render("https://example.com/start", result)

	for _, want := range []string{
		"Processing: https://example.com/start",
		"✓ Scraped webpage: https://example.com/final",
		"Status: 200",
		"HTML length: 12 chars",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRender_LoginRequired(t *testing.T) {
	result := models.WebpageResult(models.ScrapeLoginRequired("https://example.com/members"))
	out := Render("https://example.com/members", result)

	for _, want := range []string{
		"Login/Authentication Required",
		"Sorry, this page requires authentication: https://example.com/members.",
		"1. Visit the page manually in your browser",
		"2. Log in if required",
		"3. Copy and paste the content you need",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Status:") {
		t.Error("login report must not show a status code")
	}
}

func TestRender_ScrapeFailed(t *testing.T) {
	result := models.WebpageResult(models.ScrapeFailed("https://example.com/broken", "step 1 (navigate) failed"))
	out := Render("https://example.com/broken", result)

	for _, want := range []string{
		"✗ Scraping failed:",
		"This could be due to:",
		"- Anti-bot protection",
		"Please try:",
		"1. Visit the page manually in your browser",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRender_Download(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		result := models.FileDownloadResult(models.DownloadSuccessLocal("/downloads/report.pdf", 1234, "application/pdf"))
		out := Render("https://example.com/report.pdf", result)

		for _, want := range []string{
			"Detected downloadable file",
			"✓ Downloaded file successfully:",
			"Local path: /downloads/report.pdf",
			"File size: 1234 bytes",
			"Content type: application/pdf",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("report missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("s3", func(t *testing.T) {
		result := models.FileDownloadResult(models.DownloadSuccessS3("https://b.s3.us-east-1.amazonaws.com/k", 7, "application/zip"))
		out := Render("https://example.com/a.zip", result)
		if !strings.Contains(out, "S3 URL: https://b.s3.us-east-1.amazonaws.com/k") {
			t.Errorf("report missing S3 URL:\n%s", out)
		}
	})

	t.Run("failed", func(t *testing.T) {
		result := models.FileDownloadResult(models.DownloadFailed("HTTP 404"))
		out := Render("https://example.com/gone.zip", result)
		if !strings.Contains(out, "✗ Download failed: HTTP 404") {
			t.Errorf("report missing failure line:\n%s", out)
		}
	})
}

func TestRender_Deterministic(t *testing.T) {
	result := models.WebpageResult(models.ScrapeFailed("https://example.com/x", "timeout"))
	if Render("https://example.com/x", result) != Render("https://example.com/x", result) {
		t.Error("identical input must render identically")
	}
}

func TestSaveResult(t *testing.T) {
	dir := t.TempDir()
	cfg := config.ReportConfig{SaveResults: true, OutputDir: dir}

	result := models.WebpageResult(models.ScrapeSuccess("https://example.com/final", 200, "<p>hi</p>"))
	path, err := SaveResult(cfg, "https://example.com/start", result)
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("summary written outside output dir: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}

	var parsed map[string]map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	entry, ok := parsed["https://example.com/start"]
	if !ok {
		t.Fatalf("summary keyed by wrong URL: %v", parsed)
	}
	if entry["status"] != "success" || entry["type"] != "webpage" {
		t.Errorf("unexpected summary fields: %v", entry)
	}
	if entry["final_url"] != "https://example.com/final" {
		t.Errorf("final_url = %v", entry["final_url"])
	}
}

func TestSaveResult_Disabled(t *testing.T) {
	path, err := SaveResult(config.ReportConfig{SaveResults: false}, "https://example.com/", models.ProcessingResult{})
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if path != "" {
		t.Errorf("disabled saving should return empty path, got %q", path)
	}
}
