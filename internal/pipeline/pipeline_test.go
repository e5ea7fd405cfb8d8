package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"photobooth/internal/archive"
	"photobooth/internal/domain"
	"photobooth/internal/genai"
	"photobooth/internal/settings"
)

func editedBlob(t *testing.T) domain.ImageBlob {
	t.Helper()
	img := imaging.New(120, 90, color.NRGBA{R: 10, G: 200, B: 10, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return domain.ImageBlob{MIME: domain.MIMEPNG, Data: buf.Bytes()}
}

type stubGenerator struct {
	blob    domain.ImageBlob
	err     error
	calls   int
	lastReq genai.EditRequest
}

func (s *stubGenerator) EditImage(ctx context.Context, req genai.EditRequest) (domain.ImageBlob, error) {
	s.calls++
	s.lastReq = req
	return s.blob, s.err
}

type stubOverlays struct {
	img   image.Image
	err   error
	calls int
}

func (s *stubOverlays) Load(ctx context.Context, url string) (image.Image, error) {
	s.calls++
	return s.img, s.err
}

type stubUploader struct {
	result     archive.UploadResult
	err        error
	calls      int
	configured bool
	delay      time.Duration
	onUpload   func()
	lastReq    archive.UploadRequest
}

func (s *stubUploader) Configured() bool { return s.configured }

func (s *stubUploader) Upload(ctx context.Context, req archive.UploadRequest) (archive.UploadResult, error) {
	s.calls++
	s.lastReq = req
	if s.onUpload != nil {
		s.onUpload()
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.result, s.err
}

type stubLocal struct {
	url   string
	err   error
	calls int
}

func (s *stubLocal) SavePhoto(ctx context.Context, eventID string, photo domain.ImageBlob) (string, string, error) {
	s.calls++
	return "key", s.url, s.err
}

func boothSettings() settings.Settings {
	s := settings.Defaults()
	s.EventName = "Launch Night"
	s.ActiveEventID = "evt-1"
	s.FolderID = "folder-1"
	s.SelectedModel = "gemini-3-pro-image-preview"
	s.OutputRatio = "3:2"
	return s
}

func TestRunHappyPath(t *testing.T) {
	gen := &stubGenerator{blob: editedBlob(t)}
	up := &stubUploader{
		configured: true,
		result:     archive.UploadResult{OK: true, ImageURL: "https://drive/img", ViewURL: "https://drive/view"},
	}
	local := &stubLocal{url: "http://localhost:8080/static/photos/evt-1/x.jpg"}
	p := New(Options{Generator: gen, Archive: up, Local: local, Logger: zerolog.Nop()})

	res, err := p.Run(context.Background(), RunInput{
		SourceURI:   "data:image/jpeg;base64,AAAA",
		Instruction: "80s synthwave",
		ConceptName: "Synthwave",
		Settings:    boothSettings(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gen.lastReq.Ratio != domain.Ratio3x2 || gen.lastReq.Tier != domain.TierPro {
		t.Fatalf("generator request = ratio %s tier %s", gen.lastReq.Ratio, gen.lastReq.Tier)
	}
	if res.Target.Width != 1800 || res.Target.Height != 1200 {
		t.Fatalf("target = %dx%d, want 1800x1200", res.Target.Width, res.Target.Height)
	}
	if !res.Uploaded || res.ViewURL != "https://drive/view" {
		t.Fatalf("upload result not captured: %#v", res)
	}
	if res.LocalURL == "" || local.calls != 1 {
		t.Fatalf("local archive copy missing")
	}
	if up.lastReq.EventName != "Launch Night" || up.lastReq.FolderID != "folder-1" {
		t.Fatalf("upload metadata = %#v", up.lastReq)
	}
	if res.Photo.MIME != domain.MIMEJPEG {
		t.Fatalf("final photo MIME = %s, want %s", res.Photo.MIME, domain.MIMEJPEG)
	}
	if phase, _ := p.Status(); phase != PhaseDone {
		t.Fatalf("phase = %s, want %s", phase, PhaseDone)
	}
}

func TestRunUploadFailureIsNotFatal(t *testing.T) {
	gen := &stubGenerator{blob: editedBlob(t)}
	up := &stubUploader{configured: true, err: errors.New("drive unreachable")}
	p := New(Options{Generator: gen, Archive: up, Logger: zerolog.Nop()})

	res, err := p.Run(context.Background(), RunInput{
		SourceURI: "data:image/jpeg;base64,AAAA",
		Settings:  boothSettings(),
	})
	if err != nil {
		t.Fatalf("upload failure must not fail the run: %v", err)
	}
	if res.Uploaded || res.ViewURL != "" {
		t.Fatalf("degraded share expected: %#v", res)
	}
	if phase, _ := p.Status(); phase != PhaseDone {
		t.Fatalf("phase = %s, want %s", phase, PhaseDone)
	}
}

func TestRunGenerationFailureIsFatal(t *testing.T) {
	gen := &stubGenerator{err: domain.Errorf(domain.CodeEmptyResponse, "no image data returned")}
	up := &stubUploader{configured: true}
	p := New(Options{Generator: gen, Archive: up, Logger: zerolog.Nop()})

	_, err := p.Run(context.Background(), RunInput{
		SourceURI: "data:image/jpeg;base64,AAAA",
		Settings:  boothSettings(),
	})
	if domain.CodeOf(err) != domain.CodeEmptyResponse {
		t.Fatalf("error = %v, want empty response", err)
	}
	if up.calls != 0 {
		t.Fatalf("upload must never run after a generation failure")
	}
	if phase, _ := p.Status(); phase != PhaseFailed {
		t.Fatalf("phase = %s, want %s", phase, PhaseFailed)
	}
}

func TestRunOverlayFailureIsSoft(t *testing.T) {
	gen := &stubGenerator{blob: editedBlob(t)}
	overlays := &stubOverlays{err: errors.New("404 frame")}
	up := &stubUploader{configured: true, result: archive.UploadResult{OK: true}}
	p := New(Options{Generator: gen, Overlays: overlays, Archive: up, Logger: zerolog.Nop()})

	in := RunInput{SourceURI: "data:image/jpeg;base64,AAAA", Settings: boothSettings()}
	in.Settings.OverlayImage = "https://cdn.example.com/frame.png"

	res, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("overlay failure must not fail the run: %v", err)
	}
	if overlays.calls != 1 {
		t.Fatalf("overlay loader calls = %d, want 1", overlays.calls)
	}
	if res.Photo.IsZero() {
		t.Fatalf("run must still produce a photo")
	}
}

func TestRunCompositeFailureIsFatal(t *testing.T) {
	gen := &stubGenerator{blob: domain.ImageBlob{MIME: domain.MIMEPNG, Data: []byte("garbage")}}
	up := &stubUploader{configured: true}
	p := New(Options{Generator: gen, Archive: up, Logger: zerolog.Nop()})

	_, err := p.Run(context.Background(), RunInput{
		SourceURI: "data:image/jpeg;base64,AAAA",
		Settings:  boothSettings(),
	})
	if domain.CodeOf(err) != domain.CodeComposite {
		t.Fatalf("error = %v, want composite failure", err)
	}
	if up.calls != 0 {
		t.Fatalf("upload must never run after a composite failure")
	}
}

func TestElapsedFreezesBeforeUpload(t *testing.T) {
	gen := &stubGenerator{blob: editedBlob(t)}
	var atUpload int
	up := &stubUploader{configured: true, delay: 80 * time.Millisecond, result: archive.UploadResult{OK: true}}
	p := New(Options{Generator: gen, Archive: up, Logger: zerolog.Nop(), TickInterval: 5 * time.Millisecond})
	up.onUpload = func() { _, atUpload = p.Status() }

	res, err := p.Run(context.Background(), RunInput{
		SourceURI: "data:image/jpeg;base64,AAAA",
		Settings:  boothSettings(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ElapsedSeconds != atUpload {
		t.Fatalf("elapsed advanced during upload: at upload %d, final %d", atUpload, res.ElapsedSeconds)
	}
}
