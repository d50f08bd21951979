package models

import (
	"strings"
	"testing"
)

func TestScrapeSuccess_Invariants(t *testing.T) {
	r := ScrapeSuccess("https://example.com/final", 200, "<p>hi</p>")

	if !r.Success {
		t.Fatal("constructor must mark success")
	}
	if r.HTML == "" {
		t.Error("success implies non-empty HTML")
	}
	if r.ErrorType != "" || r.Message != "" {
		t.Errorf("success must carry no error fields: %+v", r)
	}
}

func TestScrapeLoginRequired_DiscardsContent(t *testing.T) {
	r := ScrapeLoginRequired("https://example.com/members")

	if r.Success {
		t.Fatal("login wall is a failure")
	}
	if r.ErrorType != ErrorLoginRequired {
		t.Errorf("ErrorType = %q", r.ErrorType)
	}
	if r.HTML != "" || r.StatusCode != 0 {
		t.Error("login result must carry no HTML or status code")
	}
	if r.Message != "Sorry, this page requires authentication: https://example.com/members." {
		t.Errorf("Message = %q", r.Message)
	}
	if len(r.Instructions) != 3 {
		t.Errorf("expected the 3-step manual guidance, got %v", r.Instructions)
	}
}

func TestScrapeFailed_AdvisoryText(t *testing.T) {
	r := ScrapeFailed("https://example.com/x", "step 2 (scroll) failed: timeout")

	if r.Success || r.ErrorType != ErrorScrapingFailed {
		t.Fatalf("unexpected result: %+v", r)
	}
	if !strings.Contains(r.Message, "step 2 (scroll) failed") {
		t.Errorf("Message = %q, should carry the failure detail", r.Message)
	}
	if len(r.PossibleCauses) != 4 || len(r.Instructions) != 2 {
		t.Errorf("fixed advisory lists wrong: causes=%v instructions=%v", r.PossibleCauses, r.Instructions)
	}

	empty := ScrapeFailed("https://example.com/x", "")
	if !strings.Contains(empty.Message, "unknown error") {
		t.Errorf("empty detail should fall back: %q", empty.Message)
	}
}

func TestDownloadConstructors(t *testing.T) {
	local := DownloadSuccessLocal("/downloads/a.pdf", 10, "application/pdf")
	if !local.Success || local.LocalPath == "" || local.S3URL != "" {
		t.Errorf("local result wrong: %+v", local)
	}

	s3 := DownloadSuccessS3("https://b.s3.r.amazonaws.com/k", 10, "application/zip")
	if !s3.Success || s3.S3URL == "" || s3.LocalPath != "" {
		t.Errorf("s3 result wrong: %+v", s3)
	}

	failed := DownloadFailed("HTTP 500")
	if failed.Success || failed.Error != "HTTP 500" {
		t.Errorf("failed result wrong: %+v", failed)
	}
	if DownloadFailed("").Error == "" {
		t.Error("empty reason should fall back to a message")
	}
}

func TestProcessingResult_OK(t *testing.T) {
	tests := []struct {
		name   string
		result ProcessingResult
		want   bool
	}{
		{"webpage success", WebpageResult(ScrapeSuccess("u", 200, "<p>x</p>")), true},
		{"webpage failure", WebpageResult(ScrapeFailed("u", "boom")), false},
		{"download success", FileDownloadResult(DownloadSuccessLocal("/p", 1, "t")), true},
		{"download failure", FileDownloadResult(DownloadFailed("x")), false},
		{"zero value", ProcessingResult{}, false},
		{"kind without payload", ProcessingResult{Kind: KindWebpage}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.OK(); got != tt.want {
				t.Errorf("OK() = %v, want %v", got, tt.want)
			}
		})
	}
}
