// Package handlers exposes the booth pipeline, gallery, and settings over
// HTTP for the kiosk frontend.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"photobooth/internal/archive"
	"photobooth/internal/domain"
	"photobooth/internal/pipeline"
	"photobooth/internal/settings"
	"photobooth/internal/share"
)

// PhotoRunner is the pipeline surface the handlers depend on.
type PhotoRunner interface {
	Run(ctx context.Context, input pipeline.RunInput) (*pipeline.Result, error)
	Status() (pipeline.Phase, int)
}

// GalleryClient is the archive surface used by the gallery endpoints.
type GalleryClient interface {
	Configured() bool
	Gallery(ctx context.Context, eventID string) ([]archive.GalleryItem, error)
	Delete(ctx context.Context, id, token string) error
}

// App is the handler container.
type App struct {
	Settings *settings.Store
	Runner   PhotoRunner
	Gallery  GalleryClient
	QR       *share.QRBuilder
	Logger   zerolog.Logger

	// GenerateTimeout bounds one full run; zero means no bound.
	GenerateTimeout time.Duration
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"error": code, "message": message})
}

// pipelineError maps the error taxonomy onto HTTP statuses. Upstream API
// failures are gateway problems, local ones are server problems, bad captures
// are the client's.
func (a *App) pipelineError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case domain.CodeInvalidInput:
		status = http.StatusBadRequest
	case domain.CodeGeneration, domain.CodeEmptyResponse, domain.CodePermissionDenied:
		status = http.StatusBadGateway
	}
	a.error(w, status, string(code), err.Error())
}

// requirePIN gates admin endpoints behind the plaintext booth PIN.
func (a *App) requirePIN(w http.ResponseWriter, r *http.Request) bool {
	if !a.Settings.VerifyPIN(r.Header.Get("X-Admin-PIN")) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid admin PIN")
		return false
	}
	return true
}

// Health reports liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
