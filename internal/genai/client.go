// Package genai calls the Gemini image-edit API and owns the Pro-to-Standard
// fallback the booth relies on when the paid model is unavailable.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photobooth/internal/domain"
	"photobooth/internal/prompt"
)

const (
	// modelPro supports the extra imageSize parameter; modelStandard is the
	// free-tier compatible fallback.
	modelPro      = "gemini-3-pro-image-preview"
	modelStandard = "gemini-2.5-flash-image"
	proImageSize  = "1K"
)

// Options controls how the client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is a thin facade over the generateContent endpoint. It issues one
// attempt per tier and never loops: the single Pro-to-Standard downgrade is
// the only retry in the whole pipeline.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// EditRequest carries everything needed for one edit attempt. Built fresh per
// run and never mutated.
type EditRequest struct {
	SourceURI   string
	Instruction string
	Ratio       domain.AspectRatio
	Tier        domain.ModelTier
	RequestID   string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type geminiGenerationConfig struct {
	ImageConfig *geminiImageConfig `json:"imageConfig,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// apiError keeps the upstream classification structured so fallback decisions
// never depend on message wording.
type apiError struct {
	HTTPStatus int
	Code       int
	Status     string
	Message    string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gemini status %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("gemini status %d", e.HTTPStatus)
}

// accessDenied reports the permission/not-found class of failures that
// justify downgrading from the Pro model.
func (e *apiError) accessDenied() bool {
	switch {
	case e.HTTPStatus == http.StatusForbidden, e.HTTPStatus == http.StatusNotFound:
		return true
	case e.Code == http.StatusForbidden, e.Code == http.StatusNotFound:
		return true
	case e.Status == "PERMISSION_DENIED", e.Status == "NOT_FOUND":
		return true
	}
	return false
}

func (e *apiError) permissionDenied() bool {
	return e.HTTPStatus == http.StatusForbidden ||
		e.Code == http.StatusForbidden ||
		e.Status == "PERMISSION_DENIED"
}

// NewClient constructs a client with sane defaults. A nil HTTP client gets a
// reusable one with an explicit timeout; the upstream call is never unbounded.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

// ModelForTier exposes the model identifier the client will invoke for a tier.
func ModelForTier(tier domain.ModelTier) string {
	if tier == domain.TierPro {
		return modelPro
	}
	return modelStandard
}

// EditImage runs one themed edit of the captured photo. On an access failure
// of the Pro model it retries exactly once with the Standard model and returns
// that outcome as final.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (domain.ImageBlob, error) {
	if c.apiKey == "" {
		return domain.ImageBlob{}, domain.Errorf(domain.CodeMissingCredential,
			"generation API key is not configured")
	}

	source, err := domain.ParseDataURI(req.SourceURI)
	if err != nil {
		return domain.ImageBlob{}, err
	}

	apiRatio := req.Ratio.APIRatio()
	finalPrompt := prompt.Compose(req.Instruction)

	model := ModelForTier(req.Tier)
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", model).
		Str("aspect_ratio", string(apiRatio)).
		Msg("genai: attempting generation")

	blob, err := c.attempt(ctx, model, req.Tier == domain.TierPro, finalPrompt, source, apiRatio)
	if err != nil && req.Tier == domain.TierPro {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.accessDenied() {
			c.logger.Warn().
				Str("request_id", req.RequestID).
				Str("model", model).
				Int("upstream_code", apiErr.Code).
				Str("upstream_status", apiErr.Status).
				Msg("genai: pro model unavailable, falling back to standard")
			blob, err = c.attempt(ctx, modelStandard, false, finalPrompt, source, apiRatio)
		}
	}
	if err != nil {
		return domain.ImageBlob{}, c.classify(err)
	}
	return blob, nil
}

// attempt issues a single generateContent call and extracts the first inline
// image from the response.
func (c *Client) attempt(ctx context.Context, model string, pro bool, finalPrompt string, source domain.ImageBlob, ratio domain.APIAspectRatio) (domain.ImageBlob, error) {
	imageConfig := &geminiImageConfig{AspectRatio: string(ratio)}
	if pro {
		imageConfig.ImageSize = proImageSize
	}

	// Part order is part of the API contract: text first, image second.
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: finalPrompt},
				{InlineData: &geminiInlineData{
					MimeType: source.MIME,
					Data:     base64.StdEncoding.EncodeToString(source.Data),
				}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{ImageConfig: imageConfig},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(model)), payload, &response); err != nil {
		return domain.ImageBlob{}, err
	}

	if len(response.Candidates) == 0 {
		return domain.ImageBlob{}, domain.Errorf(domain.CodeEmptyResponse,
			"no candidates returned from %s", model)
	}
	for _, part := range response.Candidates[0].Content.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return domain.ImageBlob{}, domain.WrapError(domain.CodeGeneration,
				"decode inline image data", err)
		}
		// Edited output is always rewrapped as PNG regardless of the
		// source encoding.
		return domain.ImageBlob{MIME: domain.MIMEPNG, Data: data}, nil
	}

	return domain.ImageBlob{}, domain.Errorf(domain.CodeEmptyResponse,
		"no image data returned from %s", model)
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{HTTPStatus: resp.StatusCode}
		var envelope geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Status = envelope.Error.Status
			apiErr.Message = envelope.Error.Message
		} else if data, _ := io.ReadAll(resp.Body); len(data) > 0 {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// classify maps the terminal failure of a run onto the pipeline taxonomy.
// Permission failures get an actionable operator message: the Pro model only
// works on projects with billing enabled.
func (c *Client) classify(err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if apiErr.permissionDenied() {
			return domain.WrapError(domain.CodePermissionDenied,
				"API key permission denied; Pro models require a Google Cloud project with billing enabled", err)
		}
		return domain.WrapError(domain.CodeGeneration, "generation API call failed", err)
	}
	if domain.CodeOf(err) != domain.CodeUnknown {
		return err
	}
	return domain.WrapError(domain.CodeGeneration, "generation failed", err)
}
