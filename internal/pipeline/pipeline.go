// Package pipeline sequences one capture-to-archive run: generation,
// compositing, local save, remote upload. Generation and compositing failures
// end the run; an upload failure only degrades the share feature, because the
// finished photo is already on screen.
package pipeline

import (
	"context"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"photobooth/internal/archive"
	"photobooth/internal/compose"
	"photobooth/internal/domain"
	"photobooth/internal/genai"
	"photobooth/internal/settings"
)

// Phase names the orchestrator's current stage. It exists for progress
// reporting only; control flow never branches on it.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseProcessing      Phase = "processing"
	PhaseApplyingOverlay Phase = "applying_overlay"
	PhaseUploading       Phase = "uploading"
	PhaseDone            Phase = "done"
	PhaseFailed          Phase = "failed"
)

// Generator produces the AI-edited image.
type Generator interface {
	EditImage(ctx context.Context, req genai.EditRequest) (domain.ImageBlob, error)
}

// OverlayLoader fetches the frame overlay.
type OverlayLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// Uploader pushes the finished photo to the remote archive.
type Uploader interface {
	Configured() bool
	Upload(ctx context.Context, req archive.UploadRequest) (archive.UploadResult, error)
}

// LocalArchive keeps the on-disk fallback copy.
type LocalArchive interface {
	SavePhoto(ctx context.Context, eventID string, photo domain.ImageBlob) (key, url string, err error)
}

// Options wires the pipeline's collaborators.
type Options struct {
	Generator Generator
	Overlays  OverlayLoader
	Archive   Uploader
	Local     LocalArchive
	Logger    zerolog.Logger

	// TickInterval overrides the one-second progress tick in tests.
	TickInterval time.Duration
}

// Pipeline owns the in-flight run state. The booth runs one subject at a
// time, so a single phase/elapsed snapshot is enough.
type Pipeline struct {
	gen      Generator
	overlays OverlayLoader
	archive  Uploader
	local    LocalArchive
	logger   zerolog.Logger
	tick     time.Duration

	mu      sync.Mutex
	phase   Phase
	elapsed int
}

// RunInput is everything one run needs, captured up front. The settings
// snapshot is explicit: the pipeline never reads ambient configuration.
type RunInput struct {
	SourceURI   string
	Instruction string
	ConceptName string
	RequestID   string
	Settings    settings.Settings
}

// Result is the terminal success state of a run.
type Result struct {
	Photo          domain.ImageBlob
	Target         domain.CompositeTarget
	Uploaded       bool
	ImageURL       string
	ViewURL        string
	LocalURL       string
	ElapsedSeconds int
}

// New constructs a pipeline.
func New(opts Options) *Pipeline {
	tick := opts.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	return &Pipeline{
		gen:      opts.Generator,
		overlays: opts.Overlays,
		archive:  opts.Archive,
		local:    opts.Local,
		logger:   opts.Logger,
		tick:     tick,
		phase:    PhaseIdle,
	}
}

// Status returns the current phase and elapsed whole seconds for the
// progress display.
func (p *Pipeline) Status() (Phase, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase, p.elapsed
}

// Run executes one capture-to-archive sequence. Stages are strictly
// sequential; nothing in a run overlaps with anything else in the same run.
func (p *Pipeline) Run(ctx context.Context, input RunInput) (*Result, error) {
	ratio := domain.ParseAspectRatio(input.Settings.OutputRatio)
	target := ratio.CompositeTarget()
	tier := domain.TierFromModel(input.Settings.SelectedModel)

	p.mu.Lock()
	p.elapsed = 0
	p.phase = PhaseProcessing
	p.mu.Unlock()

	// The elapsed counter freezes the instant generation and compositing
	// are over, success or failure; upload time is never counted.
	stop := make(chan struct{})
	var freezeOnce sync.Once
	freeze := func() { freezeOnce.Do(func() { close(stop) }) }
	defer freeze()
	go p.countSeconds(stop)

	edited, err := p.gen.EditImage(ctx, genai.EditRequest{
		SourceURI:   input.SourceURI,
		Instruction: input.Instruction,
		Ratio:       ratio,
		Tier:        tier,
		RequestID:   input.RequestID,
	})
	if err != nil {
		freeze()
		p.setPhase(PhaseFailed)
		return nil, err
	}

	p.setPhase(PhaseApplyingOverlay)
	overlay := p.loadOverlay(ctx, input.Settings.OverlayImage)
	photo, err := compose.Composite(edited, overlay, target)
	freeze()
	if err != nil {
		p.setPhase(PhaseFailed)
		return nil, err
	}

	result := &Result{Photo: photo, Target: target}

	if p.local != nil {
		if _, localURL, err := p.local.SavePhoto(ctx, input.Settings.ActiveEventID, photo); err != nil {
			p.logger.Warn().Err(err).
				Str("request_id", input.RequestID).
				Msg("pipeline: local archive copy failed")
		} else {
			result.LocalURL = localURL
		}
	}

	p.setPhase(PhaseUploading)
	if p.archive != nil && p.archive.Configured() {
		uploaded, uploadErr := p.archive.Upload(ctx, archive.UploadRequest{
			ImageDataURI: photo.DataURI(),
			ConceptName:  input.ConceptName,
			EventName:    input.Settings.EventName,
			EventID:      input.Settings.ActiveEventID,
			FolderID:     input.Settings.FolderID,
		})
		if uploadErr != nil {
			// The photo is already shown locally; only the QR share
			// degrades.
			p.logger.Warn().Err(uploadErr).
				Str("request_id", input.RequestID).
				Msg("pipeline: upload failed, photo remains available locally")
		} else {
			result.Uploaded = true
			result.ImageURL = uploaded.ImageURL
			result.ViewURL = uploaded.ViewURL
		}
	}

	p.setPhase(PhaseDone)

	p.mu.Lock()
	result.ElapsedSeconds = p.elapsed
	p.mu.Unlock()
	return result, nil
}

// loadOverlay fetches the frame if one is configured. A load failure is soft:
// the run proceeds without the frame.
func (p *Pipeline) loadOverlay(ctx context.Context, overlayURL string) image.Image {
	overlayURL = strings.TrimSpace(overlayURL)
	if overlayURL == "" || p.overlays == nil {
		return nil
	}
	overlay, err := p.overlays.Load(ctx, overlayURL)
	if err != nil {
		p.logger.Warn().Err(err).
			Str("overlay_url", overlayURL).
			Msg("pipeline: overlay failed to load, compositing without frame")
		return nil
	}
	return overlay
}

func (p *Pipeline) setPhase(phase Phase) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}

// countSeconds drives the progress timer. It is the run's only background
// task and is cancelled, not abandoned, at terminal time.
func (p *Pipeline) countSeconds(stop <-chan struct{}) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			p.elapsed++
			p.mu.Unlock()
		case <-stop:
			return
		}
	}
}
