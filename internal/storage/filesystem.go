// Package storage keeps a local copy of every composited photo. The remote
// archive can fail without losing the shot; the local copy is served under
// the static route as a degraded share fallback.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"photobooth/internal/domain"
)

// PhotoStore persists finished photos onto the local filesystem.
type PhotoStore struct {
	basePath string
	baseURL  string
}

// NewPhotoStore initializes a store rooted at basePath. baseURL is the public
// prefix the stored keys are served under.
func NewPhotoStore(basePath, baseURL string) (*PhotoStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &PhotoStore{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// BasePath returns the configured root directory.
func (s *PhotoStore) BasePath() string {
	return s.basePath
}

// SavePhoto writes a composited photo under an event/date keyed path and
// returns the key plus its public URL.
func (s *PhotoStore) SavePhoto(ctx context.Context, eventID string, photo domain.ImageBlob) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if photo.IsZero() {
		return "", "", errors.New("storage: photo is empty")
	}

	ext := "jpg"
	if photo.MIME == domain.MIMEPNG {
		ext = "png"
	}
	if eventID == "" {
		eventID = "default"
	}
	key := fmt.Sprintf("photos/%s/%s/%s.%s",
		sanitizeSegment(eventID),
		time.Now().UTC().Format("2006-01-02"),
		uuid.NewString(),
		ext)

	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, photo.Data, 0o644); err != nil {
		return "", "", fmt.Errorf("storage: write photo: %w", err)
	}
	return key, s.URLFor(key), nil
}

// URLFor maps a storage key onto its public URL.
func (s *PhotoStore) URLFor(key string) string {
	if key == "" || s.baseURL == "" {
		return ""
	}
	return s.baseURL + "/" + key
}

// sanitizeSegment keeps event identifiers path-safe.
func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	replacer := strings.NewReplacer("/", "-", "\\", "-", "..", "-", " ", "-")
	segment = replacer.Replace(segment)
	if segment == "" || segment == "." {
		return "default"
	}
	return segment
}
