package cleaner

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ArtifactWriter manages per-session artifact files: markdown for
// scraped webpages and copies of downloaded documents, ready to be
// handed off elsewhere.
type ArtifactWriter struct {
	dir     string
	counter atomic.Int64
}

// NewArtifactWriter creates a fresh temp directory for this session's
// artifacts.
func NewArtifactWriter() (*ArtifactWriter, error) {
	dir, err := os.MkdirTemp("", "harvest_")
	if err != nil {
		return nil, fmt.Errorf("artifact dir: %w", err)
	}
	slog.Debug("artifact directory created", "dir", dir)
	return &ArtifactWriter{dir: dir}, nil
}

// Dir returns the artifact directory.
func (w *ArtifactWriter) Dir() string { return w.dir }

// WriteMarkdown writes converted markdown to a numbered .md file and
// returns its path.
func (w *ArtifactWriter) WriteMarkdown(markdown string) (string, error) {
	if markdown == "" {
		return "", fmt.Errorf("artifact: empty markdown")
	}
	n := w.counter.Add(1)
	dest := filepath.Join(w.dir, fmt.Sprintf("webpage_%d.md", n))
	if err := os.WriteFile(dest, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("artifact: write markdown: %w", err)
	}
	return dest, nil
}

// CopyDocument copies a downloaded file into the artifact directory,
// preserving its original filename.
func (w *ArtifactWriter) CopyDocument(sourcePath string) (string, error) {
	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("artifact: open source: %w", err)
	}
	defer src.Close()

	n := w.counter.Add(1)
	dest := filepath.Join(w.dir, fmt.Sprintf("doc_%d_%s", n, filepath.Base(sourcePath)))

	dst, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("artifact: create dest: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("artifact: copy: %w", err)
	}
	return dest, nil
}

// Cleanup removes the artifact directory and everything in it.
func (w *ArtifactWriter) Cleanup() {
	if err := os.RemoveAll(w.dir); err != nil {
		slog.Warn("artifact cleanup failed", "dir", w.dir, "error", err)
	}
}
