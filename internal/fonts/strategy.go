package fonts

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// ErrNotFound is returned by a strategy that could not produce a font.
var ErrNotFound = errors.New("font not found")

// Strategy is one step of the resolution chain.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, family string) (*Handle, error)
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

var bundled = map[string][]byte{
	"go":           goregular.TTF,
	"go regular":   goregular.TTF,
	"go bold":      gobold.TTF,
	"go italic":    goitalic.TTF,
	"go medium":    gomedium.TTF,
	"go mono":      gomono.TTF,
	"go smallcaps": gosmallcaps.TTF,
}

// DirectStrategy treats the family as something the backend can load as
// is: a bundled Go font name or a path to a font file.
type DirectStrategy struct{}

func (DirectStrategy) Name() string { return "direct" }

func (DirectStrategy) Resolve(_ context.Context, family string) (*Handle, error) {
	if data, ok := bundled[strings.ToLower(strings.TrimSpace(family))]; ok {
		return LoadBytes(family, data)
	}
	if !isFile(family) {
		return nil, ErrNotFound
	}
	return LoadFile(family)
}

// CandidateStrategy looks for the candidate file names of a family, first
// relative to the working directory and then recursively in Dirs.
// Matching is case-insensitive.
type CandidateStrategy struct {
	Dirs   []string
	Logger hclog.Logger
}

func (s *CandidateStrategy) Name() string { return "candidates" }

func (s *CandidateStrategy) Resolve(ctx context.Context, family string) (*Handle, error) {
	var index map[string][]string

	for _, name := range Candidates(family) {
		if isFile(name) {
			if h, err := LoadFile(name); err == nil {
				return h, nil
			}
		}

		if index == nil {
			index = s.indexDirs(ctx)
		}
		for _, path := range index[strings.ToLower(name)] {
			h, err := LoadFile(path)
			if err != nil {
				s.logger().Warn("font file exists but failed to load", "path", path, "error", err)
				continue
			}
			return h, nil
		}
	}

	return nil, ErrNotFound
}

// indexDirs maps lower-cased file names to their paths, in directory order.
func (s *CandidateStrategy) indexDirs(ctx context.Context) map[string][]string {
	index := make(map[string][]string)
	for _, dir := range s.Dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			if err != nil || d == nil || d.IsDir() {
				return nil
			}
			key := strings.ToLower(d.Name())
			index[key] = append(index[key], path)
			return nil
		})
	}
	return index
}

func (s *CandidateStrategy) logger() hclog.Logger {
	if s.Logger == nil {
		return hclog.NewNullLogger()
	}
	return s.Logger
}

// FcMatchStrategy asks fontconfig for the file backing a family.
type FcMatchStrategy struct {
	Run     CommandRunner
	Timeout time.Duration
	Logger  hclog.Logger
}

func (s *FcMatchStrategy) Name() string { return "fc-match" }

func (s *FcMatchStrategy) Resolve(ctx context.Context, family string) (*Handle, error) {
	queries := []string{family}
	if lower := strings.ToLower(family); lower != family {
		queries = append(queries, lower)
	}

	for _, q := range queries {
		path, err := s.match(ctx, q)
		if err != nil {
			s.logger().Debug("fc-match failed", "query", q, "error", err)
			continue
		}
		if path == "" || !isFile(path) {
			s.logger().Debug("fc-match returned no usable path", "query", q, "path", path)
			continue
		}

		h, err := LoadFile(path)
		if err != nil {
			s.logger().Warn("font found via fc-match but failed to load", "path", path, "error", err)
			continue
		}
		return h, nil
	}

	return nil, ErrNotFound
}

func (s *FcMatchStrategy) match(ctx context.Context, query string) (string, error) {
	run := s.Run
	if run == nil {
		run = ExecRunner
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := run(ctx, "fc-match", "--format=%{file}", query)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (s *FcMatchStrategy) logger() hclog.Logger {
	if s.Logger == nil {
		return hclog.NewNullLogger()
	}
	return s.Logger
}

// DefaultStrategy always returns the built-in face.
type DefaultStrategy struct{}

func (DefaultStrategy) Name() string { return "default" }

func (DefaultStrategy) Resolve(context.Context, string) (*Handle, error) {
	return Default(), nil
}

func isFile(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
