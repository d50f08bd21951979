// Package download fetches file URLs and persists the bytes through a
// pluggable store (local directory or S3).
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"

	"github.com/use-agent/harvest/fetch"
	"github.com/use-agent/harvest/models"
)

const fallbackFilename = "downloaded_file"

// Store persists downloaded bytes and reports where they landed.
type Store interface {
	Save(ctx context.Context, filename, contentType string, data []byte) (*models.DownloadResult, error)
}

// Downloader fetches a URL's bytes and hands them to its Store.
// It is safe for concurrent use.
type Downloader struct {
	client   *http.Client
	store    Store
	maxBytes int64
}

// New creates a Downloader backed by the shared Chrome-fingerprint
// HTTP client.
func New(store Store, maxBytes int64) *Downloader {
	return &Downloader{
		client:   fetch.NewClient(),
		store:    store,
		maxBytes: maxBytes,
	}
}

// Download fetches and persists one file. It never returns an error:
// every failure mode is captured in the DownloadResult so batch
// processing can treat all URLs uniformly.
func (d *Downloader) Download(ctx context.Context, rawURL string) *models.DownloadResult {
	slog.Info("downloading file", "url", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.DownloadFailed("build request: " + err.Error())
	}
	fetch.SetBrowserHeaders(req)

	resp, err := d.client.Do(req)
	if err != nil {
		return models.DownloadFailed(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return models.DownloadFailed(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return models.DownloadFailed("read body: " + err.Error())
	}
	if int64(len(data)) > d.maxBytes {
		return models.DownloadFailed(fmt.Sprintf("file exceeds %d byte limit", d.maxBytes))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := d.store.Save(ctx, filenameFromURL(rawURL), contentType, data)
	if err != nil {
		return models.DownloadFailed("persist: " + err.Error())
	}

	slog.Info("downloaded file",
		"url", rawURL,
		"bytes", result.FileSize,
		"contentType", result.ContentType,
	)
	return result
}

// filenameFromURL derives a filename from the URL path.
func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackFilename
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return fallbackFilename
	}
	return name
}
