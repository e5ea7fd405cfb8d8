package handlers

import (
	"encoding/json"
	"net/http"

	"photobooth/internal/settings"
)

// SettingsGet returns the full booth configuration. PIN gated because the
// payload includes the PIN itself.
func (a *App) SettingsGet(w http.ResponseWriter, r *http.Request) {
	if !a.requirePIN(w, r) {
		return
	}
	a.json(w, http.StatusOK, a.Settings.Get())
}

// SettingsUpdate replaces the booth configuration.
func (a *App) SettingsUpdate(w http.ResponseWriter, r *http.Request) {
	if !a.requirePIN(w, r) {
		return
	}
	var next settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if next.AdminPIN == "" {
		// An empty PIN would lock the admin out permanently.
		next.AdminPIN = a.Settings.Get().AdminPIN
	}
	if err := a.Settings.Update(next); err != nil {
		a.Logger.Error().Err(err).Msg("settings: update failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to persist settings")
		return
	}
	a.json(w, http.StatusOK, next)
}

// ConceptsList returns the theme catalog shown on the booth's theme screen.
func (a *App) ConceptsList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"concepts": a.Settings.Concepts()})
}

// ConceptsUpdate replaces the theme catalog. PIN gated.
func (a *App) ConceptsUpdate(w http.ResponseWriter, r *http.Request) {
	if !a.requirePIN(w, r) {
		return
	}
	var concepts []settings.Concept
	if err := json.NewDecoder(r.Body).Decode(&concepts); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Settings.SetConcepts(concepts); err != nil {
		a.Logger.Error().Err(err).Msg("settings: concepts update failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to persist concepts")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"concepts": concepts})
}
