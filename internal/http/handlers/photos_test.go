package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"photobooth/internal/archive"
	"photobooth/internal/domain"
	"photobooth/internal/pipeline"
	"photobooth/internal/settings"
	"photobooth/internal/share"
)

type stubRunner struct {
	result  *pipeline.Result
	err     error
	phase   pipeline.Phase
	elapsed int
	lastIn  pipeline.RunInput
	calls   int
}

func (s *stubRunner) Run(ctx context.Context, in pipeline.RunInput) (*pipeline.Result, error) {
	s.calls++
	s.lastIn = in
	return s.result, s.err
}

func (s *stubRunner) Status() (pipeline.Phase, int) {
	return s.phase, s.elapsed
}

type stubGallery struct {
	items      []archive.GalleryItem
	err        error
	deleted    []string
	configured bool
}

func (s *stubGallery) Configured() bool { return s.configured }

func (s *stubGallery) Gallery(ctx context.Context, eventID string) ([]archive.GalleryItem, error) {
	return s.items, s.err
}

func (s *stubGallery) Delete(ctx context.Context, id, token string) error {
	s.deleted = append(s.deleted, id+":"+token)
	return s.err
}

func newTestApp(t *testing.T, runner *stubRunner, gallery *stubGallery) *App {
	t.Helper()
	store, err := settings.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("settings store: %v", err)
	}
	if err := store.SetConcepts([]settings.Concept{
		{ID: "cyber", Name: "Cyberpunk", Prompt: "neon cyberpunk scene"},
	}); err != nil {
		t.Fatalf("seed concepts: %v", err)
	}
	return &App{
		Settings: store,
		Runner:   runner,
		Gallery:  gallery,
		QR:       share.NewQRBuilder(""),
		Logger:   zerolog.Nop(),
	}
}

func successResult() *pipeline.Result {
	return &pipeline.Result{
		Photo:          domain.ImageBlob{MIME: domain.MIMEJPEG, Data: []byte{0xff, 0xd8}},
		Target:         domain.Ratio9x16.CompositeTarget(),
		Uploaded:       true,
		ImageURL:       "https://drive/img",
		ViewURL:        "https://drive/view",
		ElapsedSeconds: 7,
	}
}

func postPhoto(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/photos", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.TransformPhoto(rec, req)
	return rec
}

func TestTransformPhotoWithConcept(t *testing.T) {
	runner := &stubRunner{result: successResult()}
	app := newTestApp(t, runner, nil)

	rec := postPhoto(t, app, `{"image":"data:image/jpeg;base64,AAAA","conceptId":"cyber"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	if runner.lastIn.Instruction != "neon cyberpunk scene" || runner.lastIn.ConceptName != "Cyberpunk" {
		t.Fatalf("concept not resolved: %#v", runner.lastIn)
	}

	var resp transformResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.Image, "data:image/jpeg;base64,") {
		t.Fatalf("image not a data URI: %s", resp.Image)
	}
	if !strings.Contains(resp.QRURL, "drive%2Fview") {
		t.Fatalf("QR URL must encode the view URL: %s", resp.QRURL)
	}
	if resp.ElapsedSeconds != 7 || resp.Width != 1080 || resp.Height != 1920 {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestTransformPhotoUploadDegraded(t *testing.T) {
	result := successResult()
	result.Uploaded = false
	result.ImageURL = ""
	result.ViewURL = ""
	runner := &stubRunner{result: result}
	app := newTestApp(t, runner, nil)

	rec := postPhoto(t, app, `{"image":"data:image/jpeg;base64,AAAA","prompt":"sketch"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("degraded upload must still be a success, status = %d", rec.Code)
	}
	var resp transformResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Uploaded || resp.QRURL != "" {
		t.Fatalf("expected degraded share: %#v", resp)
	}
}

func TestTransformPhotoValidation(t *testing.T) {
	app := newTestApp(t, &stubRunner{result: successResult()}, nil)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing image", `{"prompt":"x"}`},
		{"unknown concept", `{"image":"data:image/jpeg;base64,AAAA","conceptId":"nope"}`},
		{"no instruction", `{"image":"data:image/jpeg;base64,AAAA"}`},
	}
	for _, tc := range cases {
		if rec := postPhoto(t, app, tc.body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestTransformPhotoErrorMapping(t *testing.T) {
	cases := []struct {
		code   domain.ErrorCode
		status int
	}{
		{domain.CodeInvalidInput, http.StatusBadRequest},
		{domain.CodePermissionDenied, http.StatusBadGateway},
		{domain.CodeEmptyResponse, http.StatusBadGateway},
		{domain.CodeComposite, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		runner := &stubRunner{err: domain.Errorf(tc.code, "boom")}
		app := newTestApp(t, runner, nil)
		rec := postPhoto(t, app, `{"image":"data:image/jpeg;base64,AAAA","prompt":"x"}`)
		if rec.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.code, rec.Code, tc.status)
		}
	}
}

func TestPhotoStatus(t *testing.T) {
	runner := &stubRunner{phase: pipeline.PhaseApplyingOverlay, elapsed: 12}
	app := newTestApp(t, runner, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/photos/status", nil)
	rec := httptest.NewRecorder()
	app.PhotoStatus(rec, req)

	var resp map[string]any
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp["phase"] != "applying_overlay" || resp["elapsedSeconds"] != float64(12) {
		t.Fatalf("unexpected status payload: %v", resp)
	}
}
