package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"photobooth/internal/middleware"
	"photobooth/internal/pipeline"
)

type transformRequest struct {
	Image       string `json:"image"`
	ConceptID   string `json:"conceptId,omitempty"`
	ConceptName string `json:"conceptName,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
}

type transformResponse struct {
	Image          string `json:"image"`
	ImageURL       string `json:"imageUrl,omitempty"`
	ViewURL        string `json:"viewUrl,omitempty"`
	LocalURL       string `json:"localUrl,omitempty"`
	QRURL          string `json:"qrUrl,omitempty"`
	Uploaded       bool   `json:"uploaded"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	DisplayRatio   string `json:"displayRatio"`
}

// TransformPhoto runs one capture through the full pipeline and returns the
// finished photo with its share links. The call is synchronous: the kiosk
// polls PhotoStatus for progress while it waits.
func (a *App) TransformPhoto(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image is required")
		return
	}

	instruction := strings.TrimSpace(req.Prompt)
	conceptName := strings.TrimSpace(req.ConceptName)
	if req.ConceptID != "" {
		concept, ok := a.Settings.ConceptByID(req.ConceptID)
		if !ok {
			a.error(w, http.StatusBadRequest, "bad_request", "unknown concept")
			return
		}
		instruction = concept.Prompt
		conceptName = concept.Name
	}
	if instruction == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt or conceptId is required")
		return
	}

	ctx := r.Context()
	if a.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.GenerateTimeout)
		defer cancel()
	}

	result, err := a.Runner.Run(ctx, pipeline.RunInput{
		SourceURI:   req.Image,
		Instruction: instruction,
		ConceptName: conceptName,
		RequestID:   middleware.RequestIDFromContext(r.Context()),
		Settings:    a.Settings.Get(),
	})
	if err != nil {
		a.pipelineError(w, err)
		return
	}

	a.json(w, http.StatusOK, transformResponse{
		Image:          result.Photo.DataURI(),
		ImageURL:       result.ImageURL,
		ViewURL:        result.ViewURL,
		LocalURL:       result.LocalURL,
		QRURL:          a.QR.ImageURL(result.ViewURL),
		Uploaded:       result.Uploaded,
		ElapsedSeconds: result.ElapsedSeconds,
		Width:          result.Target.Width,
		Height:         result.Target.Height,
		DisplayRatio:   result.Target.Display,
	})
}

// PhotoStatus reports the in-flight run's phase and elapsed seconds for the
// kiosk progress screen.
func (a *App) PhotoStatus(w http.ResponseWriter, r *http.Request) {
	phase, elapsed := a.Runner.Status()
	a.json(w, http.StatusOK, map[string]any{
		"phase":          string(phase),
		"elapsedSeconds": elapsed,
	})
}
