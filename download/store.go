package download

import (
	"context"
	"os"
	"path/filepath"

	"github.com/use-agent/harvest/models"
)

// LocalStore writes downloads into a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Save writes the file under the store directory, creating it if needed.
func (s *LocalStore) Save(_ context.Context, filename, contentType string, data []byte) (*models.DownloadResult, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}

	dest := filepath.Join(s.dir, filename)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, err
	}

	return models.DownloadSuccessLocal(dest, int64(len(data)), contentType), nil
}
