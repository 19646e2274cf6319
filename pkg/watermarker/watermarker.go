// Package watermarker is the entry point used by the commands: it wires the
// font resolver, ffmpeg and the batch pipeline from ApplyOptions.
package watermarker

import (
	"context"

	"github.com/ZacxDev/video-watermarker/internal/config"
	"github.com/ZacxDev/video-watermarker/internal/ffmpeg"
	"github.com/ZacxDev/video-watermarker/internal/fonts"
	"github.com/ZacxDev/video-watermarker/internal/logging"
	"github.com/ZacxDev/video-watermarker/internal/processor"
	"github.com/ZacxDev/video-watermarker/internal/watermark"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

func defaultLogger(opts *config.ApplyOptions, logger hclog.Logger) hclog.Logger {
	if logger != nil {
		return logger
	}
	return logging.New("video-watermarker", "info", opts.Verbose)
}

// NewFontResolver builds the standard font chain for opts.
func NewFontResolver(opts *config.ApplyOptions, logger hclog.Logger) *fonts.Resolver {
	logger = defaultLogger(opts, logger)
	return fonts.NewResolver(fonts.Options{
		Dirs:    opts.FontDirs,
		FcMatch: opts.FcMatch,
		Logger:  logger.Named("fonts"),
	})
}

// NewPipeline wires a pipeline backed by the system ffmpeg.
func NewPipeline(opts *config.ApplyOptions, logger hclog.Logger) *processor.Pipeline {
	logger = defaultLogger(opts, logger)
	ff := ffmpeg.NewProcessor(logger.Named("ffmpeg"), config.OutputFormat)

	return processor.NewPipeline(processor.Dependencies{
		Prober:          ff,
		Encoder:         ff,
		Fonts:           NewFontResolver(opts, logger),
		Resources:       processor.SystemResources{},
		Logger:          logger.Named("pipeline"),
		MinFreeMemoryMB: opts.MinFreeMemoryMB,
	})
}

// NewBatch snapshots opts into an immutable batch.
func NewBatch(opts *config.ApplyOptions) processor.Batch {
	return processor.Batch{
		Jobs:      processor.BuildJobs(opts.InputPaths, opts.OutputDir),
		OutputDir: opts.OutputDir,
		Watermark: opts.Watermark,
		Position:  opts.Position.Clamp(),
	}
}

// Apply watermarks every input video and blocks until the batch ends.
// token may be nil; onEvent may be nil.
func Apply(ctx context.Context, opts *config.ApplyOptions, token *processor.CancelToken, onEvent func(processor.Event)) (*processor.BatchResult, error) {
	if opts == nil {
		return nil, &processor.ConfigurationError{Reason: "no options"}
	}
	if token == nil {
		token = processor.NewCancelToken()
	}
	return NewPipeline(opts, nil).Run(ctx, NewBatch(opts), token, onEvent)
}

// Preview renders the watermark alone and reports which font was used.
func Preview(ctx context.Context, opts *config.ApplyOptions, logger hclog.Logger) (*watermark.Buffer, *fonts.Handle, error) {
	handle, err := NewFontResolver(opts, logger).Resolve(ctx, opts.Watermark.FontFamily)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to resolve font")
	}

	wm := opts.Watermark
	buf, err := watermark.Render(wm.Text, handle, wm.FontSizePt, wm.Color)
	if err != nil {
		return nil, handle, errors.Wrap(err, "failed to render watermark")
	}
	return buf, handle, nil
}
