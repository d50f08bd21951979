package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/models"
)

// summary is the compact per-URL record persisted by SaveResult. It
// carries outcome metadata only, never the page HTML.
type summary struct {
	Status    string `json:"status"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`

	FinalURL   string `json:"final_url,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	HTMLLength int    `json:"html_length,omitempty"`

	FileSize    int64  `json:"file_size,omitempty"`
	ContentType string `json:"content_type,omitempty"`

	ErrorType string `json:"error_type,omitempty"`
	Error     string `json:"error,omitempty"`

	Artifact string `json:"artifact,omitempty"`
}

// SaveResult writes a JSON summary for one processed URL and returns
// the path of the written file. It is a no-op returning "" when saving
// is disabled.
func SaveResult(cfg config.ReportConfig, url string, result models.ProcessingResult) (string, error) {
	if !cfg.SaveResults {
		return "", nil
	}

	now := time.Now()
	s := summary{
		Status:    statusOf(result),
		Type:      string(result.Kind),
		Timestamp: now.UTC().Format(time.RFC3339),
		Artifact:  result.ArtifactPath,
	}

	switch result.Kind {
	case models.KindWebpage:
		if sr := result.Scrape; sr != nil {
			if sr.Success {
				s.FinalURL = sr.URL
				s.StatusCode = sr.StatusCode
				s.HTMLLength = len(sr.HTML)
			} else {
				s.ErrorType = string(sr.ErrorType)
				s.Error = sr.Message
			}
		}
	case models.KindFileDownload:
		if dr := result.Download; dr != nil {
			if dr.Success {
				s.FileSize = dr.FileSize
				s.ContentType = dr.ContentType
			} else {
				s.Error = dr.Error
			}
		}
	}

	data, err := json.MarshalIndent(map[string]summary{url: s}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	path := filepath.Join(cfg.OutputDir, fmt.Sprintf("scraped_%d.json", now.Unix()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

func statusOf(result models.ProcessingResult) string {
	switch result.Kind {
	case models.KindFileDownload:
		if result.OK() {
			return "download_success"
		}
		return "download_failed"
	default:
		if result.OK() {
			return "success"
		}
		return "failed"
	}
}
