// Package archive talks to the remote drive-backed archive service: it
// uploads finished photos and lists or deletes gallery entries. The service
// is an opaque collaborator; the pipeline only depends on its JSON contract.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photobooth/internal/domain"
)

// Options configures the archive client.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client performs HTTP calls against the archive endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     zerolog.Logger
}

// UploadRequest carries the composited photo and its event metadata.
type UploadRequest struct {
	ImageDataURI string `json:"image"`
	ConceptName  string `json:"conceptName"`
	EventName    string `json:"eventName"`
	EventID      string `json:"eventId,omitempty"`
	FolderID     string `json:"folderId"`
}

// UploadResult is the archive's acknowledgement: a direct download URL and a
// shareable view URL.
type UploadResult struct {
	OK       bool   `json:"ok"`
	ImageURL string `json:"imageUrl"`
	ViewURL  string `json:"viewUrl"`
	Error    string `json:"error,omitempty"`
}

// GalleryItem is one archived photo as listed by the service.
type GalleryItem struct {
	ID          string `json:"id"`
	CreatedAt   string `json:"createdAt"`
	ConceptName string `json:"conceptName"`
	ImageURL    string `json:"imageUrl"`
	DownloadURL string `json:"downloadUrl"`
	Token       string `json:"token"`
	EventID     string `json:"eventId,omitempty"`
}

// NewClient constructs an archive client. A nil HTTP client gets one with a
// 30s timeout; the upload never blocks a run indefinitely.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

// Configured reports whether an endpoint was provided. An unconfigured client
// degrades the share feature but never fails a run.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// Upload sends the composited photo to the archive and returns the share
// URLs. Errors here are absorbed by the pipeline, not surfaced to the guest.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if !c.Configured() {
		return UploadResult{}, domain.Errorf(domain.CodeUpload, "archive endpoint is not configured")
	}

	var result UploadResult
	if err := c.post(ctx, map[string]any{
		"action":      "upload",
		"image":       req.ImageDataURI,
		"conceptName": req.ConceptName,
		"eventName":   req.EventName,
		"eventId":     req.EventID,
		"folderId":    req.FolderID,
	}, &result); err != nil {
		return UploadResult{}, domain.WrapError(domain.CodeUpload, "upload photo", err)
	}
	if !result.OK {
		msg := result.Error
		if msg == "" {
			msg = "archive rejected the upload"
		}
		return UploadResult{}, domain.Errorf(domain.CodeUpload, "%s", msg)
	}

	c.logger.Debug().
		Str("concept", req.ConceptName).
		Str("event", req.EventName).
		Msg("archive: photo uploaded")
	return result, nil
}

// Gallery lists archived photos, optionally filtered to one event.
func (c *Client) Gallery(ctx context.Context, eventID string) ([]GalleryItem, error) {
	if !c.Configured() {
		return nil, domain.Errorf(domain.CodeUpload, "archive endpoint is not configured")
	}

	endpoint := c.endpoint + "?action=gallery"
	if eventID != "" {
		endpoint += "&eventId=" + url.QueryEscape(eventID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create gallery request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch gallery: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("fetch gallery: status %d", resp.StatusCode)
	}

	var payload struct {
		OK    bool          `json:"ok"`
		Items []GalleryItem `json:"items"`
		Error string        `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode gallery response: %w", err)
	}
	if !payload.OK {
		return nil, fmt.Errorf("gallery listing failed: %s", payload.Error)
	}
	return payload.Items, nil
}

// Delete removes one archived photo using its per-item token.
func (c *Client) Delete(ctx context.Context, id, token string) error {
	if !c.Configured() {
		return domain.Errorf(domain.CodeUpload, "archive endpoint is not configured")
	}

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	if err := c.post(ctx, map[string]any{
		"action": "delete",
		"id":     id,
		"token":  token,
	}, &result); err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("delete photo: %s", result.Error)
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("archive status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("archive status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode archive response: %w", err)
	}
	return nil
}
