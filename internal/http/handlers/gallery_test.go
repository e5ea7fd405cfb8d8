package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"photobooth/internal/archive"
)

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

func TestGalleryListProxiesArchive(t *testing.T) {
	gallery := &stubGallery{
		configured: true,
		items:      []archive.GalleryItem{{ID: "p1", ConceptName: "Retro"}},
	}
	app := newTestApp(t, &stubRunner{}, gallery)

	req := httptest.NewRequest(http.MethodGet, "/v1/gallery?eventId=evt-1", nil)
	rec := httptest.NewRecorder()
	app.GalleryList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); !containsAll(got, `"p1"`, `"Retro"`) {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestGalleryListUnconfigured(t *testing.T) {
	app := newTestApp(t, &stubRunner{}, &stubGallery{configured: false})

	rec := httptest.NewRecorder()
	app.GalleryList(rec, httptest.NewRequest(http.MethodGet, "/v1/gallery", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func deleteRequest(id, token, pin string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/v1/gallery/"+id+"?token="+token, nil)
	if pin != "" {
		req.Header.Set("X-Admin-PIN", pin)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGalleryDeleteRequiresPIN(t *testing.T) {
	gallery := &stubGallery{configured: true}
	app := newTestApp(t, &stubRunner{}, gallery)

	rec := httptest.NewRecorder()
	app.GalleryDelete(rec, deleteRequest("p1", "tok", ""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(gallery.deleted) != 0 {
		t.Fatalf("delete must not reach the archive without a PIN")
	}

	rec = httptest.NewRecorder()
	app.GalleryDelete(rec, deleteRequest("p1", "tok", "1234"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(gallery.deleted) != 1 || gallery.deleted[0] != "p1:tok" {
		t.Fatalf("unexpected deletes: %v", gallery.deleted)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	app := newTestApp(t, &stubRunner{}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/settings", nil)
	app.SettingsGet(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("settings read without PIN must be rejected, status = %d", rec.Code)
	}

	body := `{"eventName":"Gala","selectedModel":"gemini-3-pro-image-preview","outputRatio":"16:9","adminPin":""}`
	req = httptest.NewRequest(http.MethodPut, "/v1/settings", strings.NewReader(body))
	req.Header.Set("X-Admin-PIN", "1234")
	rec = httptest.NewRecorder()
	app.SettingsUpdate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got := app.Settings.Get()
	if got.EventName != "Gala" || got.OutputRatio != "16:9" {
		t.Fatalf("settings not applied: %#v", got)
	}
	if got.AdminPIN != "1234" {
		t.Fatalf("blank PIN in update must keep the previous PIN, got %q", got.AdminPIN)
	}
}
