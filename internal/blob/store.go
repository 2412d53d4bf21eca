package blob

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pingmatch/ping/internal/config"
	"github.com/pingmatch/ping/internal/httperr"
)

// MaxUploadBytes is the hard cap on a single uploaded image.
const MaxUploadBytes = 5 << 20

var extByMIME = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store writes uploaded images to local disk and hands back public URLs.
type Store struct {
	dir     string
	baseURL string
}

func NewStore(cfg *config.Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Blob.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{dir: cfg.Blob.Dir, baseURL: strings.TrimSuffix(cfg.Blob.BaseURL, "/")}, nil
}

// Dir returns the directory uploads are written to.
func (s *Store) Dir() string { return s.dir }

// Save validates size and MIME type, persists the file under a random
// key, and returns its public URL.
func (s *Store) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxUploadBytes {
		return "", httperr.Validation("file exceeds the 5MB limit")
	}

	contentType := header.Header.Get("Content-Type")
	ext, ok := extByMIME[contentType]
	if !ok {
		return "", httperr.Validation("only image uploads are allowed")
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	// LimitReader guards against a lying Content-Length.
	if _, err := io.Copy(dst, io.LimitReader(file, MaxUploadBytes+1)); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return s.baseURL + "/" + name, nil
}
