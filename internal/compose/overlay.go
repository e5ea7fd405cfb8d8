package compose

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// OverlayLoader fetches the event's frame overlay over HTTP. Every fetch
// appends a timestamp query parameter so an updated frame never serves from a
// stale cache.
type OverlayLoader struct {
	httpClient *http.Client
	now        func() time.Time
}

// NewOverlayLoader builds a loader; a nil client gets one with a 30s timeout.
func NewOverlayLoader(httpClient *http.Client) *OverlayLoader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OverlayLoader{httpClient: httpClient, now: time.Now}
}

// Load fetches and decodes the overlay image. Callers treat a failure as
// soft: the pipeline logs it and composites without the frame.
func (l *OverlayLoader) Load(ctx context.Context, rawURL string) (image.Image, error) {
	target := cacheBusted(rawURL, l.now())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create overlay request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch overlay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch overlay: status %d", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode overlay: %w", err)
	}
	return img, nil
}

func cacheBusted(rawURL string, now time.Time) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "t=" + strconv.FormatInt(now.UnixMilli(), 10)
}
