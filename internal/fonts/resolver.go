package fonts

import (
	"context"
	"os"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// ErrNoFont means every strategy failed, including the default.
var ErrNoFont = errors.New("no renderable font available")

// Options configures the standard resolution chain.
type Options struct {
	// Dirs replaces the platform font directories when non-empty.
	Dirs []string
	// FcMatch enables the fontconfig lookup (Linux only).
	FcMatch bool
	// Runner overrides how fc-match is executed.
	Runner CommandRunner
	// GOOS defaults to runtime.GOOS.
	GOOS   string
	Logger hclog.Logger
}

// Resolver runs strategies in order and returns the first font found.
type Resolver struct {
	strategies []Strategy
	logger     hclog.Logger
}

// NewResolver builds the standard chain: direct, candidates, fc-match
// (Linux, when enabled), default.
func NewResolver(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	dirs := opts.Dirs
	if len(dirs) == 0 {
		home, _ := os.UserHomeDir()
		dirs = PlatformDirs(goos, home, os.Getenv)
	}

	strategies := []Strategy{
		DirectStrategy{},
		&CandidateStrategy{Dirs: dirs, Logger: logger},
	}
	if goos == "linux" && opts.FcMatch {
		strategies = append(strategies, &FcMatchStrategy{Run: opts.Runner, Logger: logger})
	}
	strategies = append(strategies, DefaultStrategy{})

	return NewResolverWithStrategies(logger, strategies...)
}

// NewResolverWithStrategies builds a resolver from an explicit chain.
func NewResolverWithStrategies(logger hclog.Logger, strategies ...Strategy) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{strategies: strategies, logger: logger}
}

// Resolve returns a font for family. With the standard chain it only fails
// when ctx is cancelled.
func (r *Resolver) Resolve(ctx context.Context, family string) (*Handle, error) {
	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}

		r.logger.Debug("trying font strategy", "strategy", s.Name(), "family", family)
		h, err := s.Resolve(ctx, family)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				r.logger.Debug("font strategy failed", "strategy", s.Name(), "error", err)
			}
			continue
		}

		if h.Source == "" {
			h.Source = s.Name()
		}
		if h.Scalable {
			r.logger.Info("font resolved", "family", family, "source", h.Source, "path", h.Path)
		} else {
			r.logger.Warn("falling back to built-in font, requested size is ignored", "family", family)
		}
		return h, nil
	}

	return nil, ErrNoFont
}
