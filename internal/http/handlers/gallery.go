package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GalleryList proxies the remote archive's gallery listing.
func (a *App) GalleryList(w http.ResponseWriter, r *http.Request) {
	if a.Gallery == nil || !a.Gallery.Configured() {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "archive is not configured")
		return
	}
	items, err := a.Gallery.Gallery(r.Context(), r.URL.Query().Get("eventId"))
	if err != nil {
		a.Logger.Warn().Err(err).Msg("gallery: listing failed")
		a.error(w, http.StatusBadGateway, "archive_error", "failed to load gallery")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// GalleryDelete removes one archived photo. Admin PIN gated.
func (a *App) GalleryDelete(w http.ResponseWriter, r *http.Request) {
	if !a.requirePIN(w, r) {
		return
	}
	if a.Gallery == nil || !a.Gallery.Configured() {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "archive is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	token := r.URL.Query().Get("token")
	if id == "" || token == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id and token are required")
		return
	}
	if err := a.Gallery.Delete(r.Context(), id, token); err != nil {
		a.Logger.Warn().Err(err).Str("photo_id", id).Msg("gallery: delete failed")
		a.error(w, http.StatusBadGateway, "archive_error", "failed to delete photo")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"ok": true})
}
