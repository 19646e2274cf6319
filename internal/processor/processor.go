// Package processor runs a watermark batch: it renders the watermark once,
// then composites and encodes each video in order, isolating per-job
// failures and honoring a cooperative cancel.
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZacxDev/video-watermarker/internal/config"
	"github.com/ZacxDev/video-watermarker/internal/ffmpeg"
	"github.com/ZacxDev/video-watermarker/internal/fonts"
	"github.com/ZacxDev/video-watermarker/internal/layout"
	"github.com/ZacxDev/video-watermarker/internal/watermark"
	"github.com/ZacxDev/video-watermarker/pkg/types"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Prober reads the properties of a source video.
type Prober interface {
	Probe(path string) (*ffmpeg.VideoMetadata, error)
}

// Encoder writes one watermarked video.
type Encoder interface {
	Encode(req ffmpeg.EncodeRequest) error
}

// FontResolver finds a font for a family name.
type FontResolver interface {
	Resolve(ctx context.Context, family string) (*fonts.Handle, error)
}

// Batch is the immutable input of one run.
type Batch struct {
	Jobs      []types.VideoJob
	OutputDir string
	Watermark types.WatermarkConfig
	Position  types.NormalizedPosition
}

// Dependencies wires a Pipeline. Resources may be nil to skip the memory
// check.
type Dependencies struct {
	Prober          Prober
	Encoder         Encoder
	Fonts           FontResolver
	Resources       ResourceChecker
	Logger          hclog.Logger
	MinFreeMemoryMB uint64
	// TempDir is where the overlay directory is created; empty uses the
	// system default.
	TempDir string
}

// Pipeline runs batches sequentially. It keeps no state between runs.
type Pipeline struct {
	prober    Prober
	encoder   Encoder
	fonts     FontResolver
	resources ResourceChecker
	logger    hclog.Logger
	minFreeMB uint64
	tempDir   string
}

// NewPipeline creates a pipeline
func NewPipeline(deps Dependencies) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Pipeline{
		prober:    deps.Prober,
		encoder:   deps.Encoder,
		fonts:     deps.Fonts,
		resources: deps.Resources,
		logger:    logger,
		minFreeMB: deps.MinFreeMemoryMB,
		tempDir:   deps.TempDir,
	}
}

// overlay is the rendered watermark shared read-only by every job.
type overlay struct {
	path   string
	width  int
	height int
}

// Run processes batch. Errors returned here are pre-run failures
// (*ConfigurationError or *FatalRenderError) and mean no job was attempted.
// Per-job failures are recorded in the result instead.
func (p *Pipeline) Run(ctx context.Context, batch Batch, token *CancelToken, sink func(Event)) (*BatchResult, error) {
	if err := p.validate(batch); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := p.logger.With("batch", id)
	prog := newProgress(len(batch.Jobs), sink)

	result := newBatchResult(id, len(batch.Jobs))
	total := len(batch.Jobs)
	if token.Cancelled() || ctx.Err() != nil {
		return p.skipAll(result, batch, prog, logger), nil
	}

	prog.status("Rendering watermark...")
	ov, cleanup, err := p.prepareOverlay(ctx, batch.Watermark, logger)
	if err != nil {
		// A cancel during font lookup is not a configuration problem.
		if ctx.Err() != nil {
			return p.skipAll(result, batch, prog, logger), nil
		}
		return nil, err
	}
	defer cleanup()

	logger.Info("starting batch", "videos", total, "output_dir", batch.OutputDir)

	for i, job := range batch.Jobs {
		if token.Cancelled() || ctx.Err() != nil {
			logger.Info("batch cancelled", "done", i, "total", total)
			result.cancel(batch.Jobs[i:])
			break
		}

		name := filepath.Base(job.SourcePath)
		prog.status(fmt.Sprintf("Processing (%d/%d): %s", i+1, total, name))
		prog.job(i, 0)

		outcome := p.runJob(job, ov, batch.Position, func(stage string) {
			switch stage {
			case "encode":
				prog.status(fmt.Sprintf("Writing file (%d/%d): %s...", i+1, total, name))
				prog.job(i, 0.05)
			case "encoded":
				prog.job(i, 0.95)
			}
		}, logger.With("file", name))
		result.record(outcome)
	}

	result.finish()
	prog.set(1)
	prog.status(result.StatusLine())

	logger.Info("batch finished",
		"status", result.Status(),
		"succeeded", result.Succeeded(),
		"failed", result.Failed(),
		"skipped", result.Skipped(),
		"elapsed", result.Duration())

	return result, nil
}

// skipAll finishes a batch that was cancelled before any job started.
func (p *Pipeline) skipAll(result *BatchResult, batch Batch, prog *progress, logger hclog.Logger) *BatchResult {
	logger.Info("batch cancelled before start", "total", len(batch.Jobs))
	result.cancel(batch.Jobs)
	result.finish()
	prog.set(1)
	prog.status(result.StatusLine())
	return result
}

func (p *Pipeline) validate(batch Batch) error {
	if len(batch.Jobs) == 0 {
		return &ConfigurationError{Reason: "no videos selected"}
	}
	if p.prober == nil || p.encoder == nil || p.fonts == nil {
		return &ConfigurationError{Reason: "pipeline is missing a prober, encoder or font resolver"}
	}
	if err := CheckOutputDir(batch.OutputDir); err != nil {
		return err
	}
	return nil
}

// CheckOutputDir verifies that dir exists, is a directory and is writable.
func CheckOutputDir(dir string) error {
	if dir == "" {
		return &ConfigurationError{Reason: "no output directory selected"}
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return &ConfigurationError{Reason: "output directory not found: " + dir, Err: err}
	}
	if !fi.IsDir() {
		return &ConfigurationError{Reason: "output path is not a directory: " + dir}
	}

	probe, err := os.CreateTemp(dir, ".watermark-write-check-*")
	if err != nil {
		return &ConfigurationError{Reason: "output directory is not writable: " + dir, Err: err}
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// prepareOverlay renders the watermark and writes it to a private temp dir.
// The returned cleanup removes the directory.
func (p *Pipeline) prepareOverlay(ctx context.Context, wm types.WatermarkConfig, logger hclog.Logger) (*overlay, func(), error) {
	handle, err := p.fonts.Resolve(ctx, wm.FontFamily)
	if err != nil {
		return nil, nil, &ConfigurationError{Reason: "no renderable font", Err: err}
	}
	if !handle.Scalable {
		logger.Warn("using built-in font, the requested size is ignored", "font", wm.FontFamily, "size", wm.FontSizePt)
	}

	buf, err := watermark.Render(wm.Text, handle, wm.FontSizePt, wm.Color)
	if err != nil {
		return nil, nil, &FatalRenderError{Cause: err}
	}
	if buf == nil {
		return nil, nil, &FatalRenderError{Cause: errors.New("watermark text is empty or font size is not positive")}
	}

	dir, err := os.MkdirTemp(p.tempDir, config.TempDirPrefix)
	if err != nil {
		return nil, nil, &FatalRenderError{Cause: errors.Wrap(err, "failed to create temp directory")}
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove temp directory", "dir", dir, "error", err)
		}
	}

	path := filepath.Join(dir, "watermark.png")
	if err := watermark.WritePNG(buf, path); err != nil {
		cleanup()
		return nil, nil, &FatalRenderError{Cause: err}
	}

	logger.Debug("watermark rendered", "width", buf.Width(), "height", buf.Height(), "font_source", handle.Source)
	return &overlay{path: path, width: buf.Width(), height: buf.Height()}, cleanup, nil
}

// runJob processes one video. It never panics or returns an error; every
// failure becomes a failed outcome and any partial output is removed.
func (p *Pipeline) runJob(job types.VideoJob, ov *overlay, pos types.NormalizedPosition, stage func(string), logger hclog.Logger) (outcome JobOutcome) {
	outcome = JobOutcome{Job: job, Status: JobSucceeded}
	encodeStarted := false

	fail := func(err error) {
		class := classify(err)
		msg := fmt.Sprintf("%s: %s", filepath.Base(job.SourcePath), hint(err))
		logger.Error("job failed", "class", class, "error", err)
		outcome = JobOutcome{Job: job, Status: JobFailed, Error: msg, Class: class}

		if encodeStarted {
			if rmErr := os.Remove(job.OutputPath); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Warn("failed to remove partial output", "path", job.OutputPath, "error", rmErr)
			}
		}
	}

	defer func() {
		if r := recover(); r != nil {
			fail(errors.Errorf("panic: %v", r))
		}
	}()

	if _, err := os.Stat(job.SourcePath); err != nil {
		fail(errors.WithStack(err))
		return outcome
	}

	if p.resources != nil {
		if err := p.resources.CheckMemory(p.minFreeMB); err != nil {
			var re *ResourceError
			if errors.As(err, &re) {
				fail(err)
				return outcome
			}
			logger.Warn("memory check unavailable", "error", err)
		}
	}

	md, err := p.prober.Probe(job.SourcePath)
	if err != nil {
		fail(err)
		return outcome
	}
	logger.Debug("probed", "width", md.Width, "height", md.Height, "duration", md.Duration, "audio", md.HasAudio)

	x, y := layout.MapToPixels(pos, ov.width, ov.height, md.Width, md.Height, config.VideoMargin)
	logger.Debug("watermark position", "x", x, "y", y)

	stage("encode")
	encodeStarted = true
	err = p.encoder.Encode(ffmpeg.EncodeRequest{
		SourcePath:  job.SourcePath,
		OverlayPath: ov.path,
		OutputPath:  job.OutputPath,
		X:           x,
		Y:           y,
		Duration:    md.Duration,
		HasAudio:    md.HasAudio,
	})
	if err != nil {
		fail(errors.Wrap(err, "encode failed"))
		return outcome
	}
	stage("encoded")

	logger.Info("job complete", "output", job.OutputPath)
	return outcome
}

func classify(err error) ffmpeg.Class {
	var re *ResourceError
	if errors.As(err, &re) {
		return ffmpeg.ClassResource
	}
	return ffmpeg.Classify(err, ffmpeg.StderrOf(err))
}

func hint(err error) string {
	var re *ResourceError
	if errors.As(err, &re) {
		return re.Error() + "; try smaller videos"
	}
	return ffmpeg.Hint(err, ffmpeg.StderrOf(err))
}
