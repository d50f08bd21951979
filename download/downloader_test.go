package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload_SavesToLocalStore(t *testing.T) {
	payload := []byte("%PDF-1.4 fake pdf body")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := New(NewLocalStore(dir), 1<<20)

	result := d.Download(context.Background(), srv.URL+"/docs/report.pdf")
	require.True(t, result.Success, "download should succeed: %s", result.Error)

	assert.Equal(t, filepath.Join(dir, "report.pdf"), result.LocalPath)
	assert.Equal(t, int64(len(payload)), result.FileSize)
	assert.Equal(t, "application/pdf", result.ContentType)

	saved, err := os.ReadFile(result.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, payload, saved)
}

func TestDownload_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := New(NewLocalStore(t.TempDir()), 1<<20)
	result := d.Download(context.Background(), srv.URL+"/missing.zip")

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "HTTP 404")
	assert.Empty(t, result.LocalPath)
}

func TestDownload_SizeLimitEnforced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	d := New(NewLocalStore(t.TempDir()), 1024)
	result := d.Download(context.Background(), srv.URL+"/big.bin")

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "limit")
}

func TestDownload_ContentTypeFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress Go's content sniffing header.
		w.Header()["Content-Type"] = nil
		w.Write([]byte{0x00, 0x01})
	}))
	defer srv.Close()

	d := New(NewLocalStore(t.TempDir()), 1<<20)
	result := d.Download(context.Background(), srv.URL+"/blob")

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "application/octet-stream", result.ContentType)
}

func TestDownload_UnreachableServer(t *testing.T) {
	d := New(NewLocalStore(t.TempDir()), 1<<20)
	result := d.Download(context.Background(), "http://127.0.0.1:1/file.zip")

	require.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"simple", "https://example.com/files/report.pdf", "report.pdf"},
		{"query ignored", "https://example.com/a.zip?token=x", "a.zip"},
		{"root path", "https://example.com/", fallbackFilename},
		{"no path", "https://example.com", fallbackFilename},
		{"unparseable", "://bad", fallbackFilename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filenameFromURL(tt.url))
		})
	}
}
