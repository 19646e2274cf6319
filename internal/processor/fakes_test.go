package processor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ZacxDev/video-watermarker/internal/ffmpeg"
	"github.com/ZacxDev/video-watermarker/internal/fonts"
	"github.com/ZacxDev/video-watermarker/pkg/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

type fakeProber struct {
	mu     sync.Mutex
	fail   map[string]error
	md     ffmpeg.VideoMetadata
	probed []string
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		fail: map[string]error{},
		md:   ffmpeg.VideoMetadata{Width: 1280, Height: 720, Duration: 4, HasAudio: true},
	}
}

func (f *fakeProber) Probe(path string) (*ffmpeg.VideoMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, path)
	if err, ok := f.fail[filepath.Base(path)]; ok {
		return nil, err
	}
	md := f.md
	return &md, nil
}

type fakeEncoder struct {
	mu       sync.Mutex
	requests []ffmpeg.EncodeRequest
	fail     map[string]error
	panics   map[string]bool
	// before runs at the start of every Encode call.
	before func(req ffmpeg.EncodeRequest)
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{fail: map[string]error{}, panics: map[string]bool{}}
}

func (f *fakeEncoder) Encode(req ffmpeg.EncodeRequest) error {
	if f.before != nil {
		f.before(req)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	err := f.fail[filepath.Base(req.SourcePath)]
	shouldPanic := f.panics[filepath.Base(req.SourcePath)]
	f.mu.Unlock()

	if _, statErr := os.Stat(req.OverlayPath); statErr != nil {
		return errors.Wrap(statErr, "overlay missing")
	}

	// Like ffmpeg, leave a partial file behind before failing.
	if writeErr := os.WriteFile(req.OutputPath, []byte("video"), 0o644); writeErr != nil {
		return writeErr
	}
	if shouldPanic {
		panic("encoder exploded")
	}
	return err
}

func (f *fakeEncoder) encoded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, r := range f.requests {
		names = append(names, filepath.Base(r.SourcePath))
	}
	return names
}

type fakeResources struct {
	failOnCall int
	calls      int
}

func (f *fakeResources) CheckMemory(requiredMB uint64) error {
	f.calls++
	if f.calls == f.failOnCall {
		return &ResourceError{AvailableMB: 10, RequiredMB: requiredMB}
	}
	return nil
}

type fixedFonts struct {
	handle *fonts.Handle
	err    error
}

func (f fixedFonts) Resolve(context.Context, string) (*fonts.Handle, error) {
	return f.handle, f.err
}

func goRegularFonts(t *testing.T) fixedFonts {
	t.Helper()
	h, err := fonts.LoadBytes("Go Regular", goregular.TTF)
	require.NoError(t, err)
	return fixedFonts{handle: h}
}

type harness struct {
	prober    *fakeProber
	encoder   *fakeEncoder
	resources *fakeResources
	pipeline  *Pipeline
	inputDir  string
	outputDir string
	tempDir   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		prober:    newFakeProber(),
		encoder:   newFakeEncoder(),
		resources: &fakeResources{},
		inputDir:  t.TempDir(),
		outputDir: t.TempDir(),
		tempDir:   t.TempDir(),
	}
	h.pipeline = NewPipeline(Dependencies{
		Prober:          h.prober,
		Encoder:         h.encoder,
		Fonts:           goRegularFonts(t),
		Resources:       h.resources,
		MinFreeMemoryMB: 256,
		TempDir:         h.tempDir,
	})
	return h
}

// inputs creates empty source files and returns their paths.
func (h *harness) inputs(t *testing.T, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := filepath.Join(h.inputDir, n)
		require.NoError(t, os.WriteFile(p, []byte("src"), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func (h *harness) batch(t *testing.T, names ...string) Batch {
	return Batch{
		Jobs:      BuildJobs(h.inputs(t, names...), h.outputDir),
		OutputDir: h.outputDir,
		Watermark: types.WatermarkConfig{
			Text:       "© BProgy",
			FontFamily: "Go",
			FontSizePt: 40,
			Color:      types.White,
		},
		Position: types.Center,
	}
}

type recorder struct {
	events []Event
}

func (r *recorder) sink(e Event) { r.events = append(r.events, e) }

func (r *recorder) progress() []float64 {
	var out []float64
	for _, e := range r.events {
		if p, ok := e.(ProgressEvent); ok {
			out = append(out, p.Fraction)
		}
	}
	return out
}

func (r *recorder) statuses() []string {
	var out []string
	for _, e := range r.events {
		if s, ok := e.(StatusEvent); ok {
			out = append(out, s.Text)
		}
	}
	return out
}
