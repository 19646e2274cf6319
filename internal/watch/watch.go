// Package watch turns a folder into a batch queue: new video files are
// collected until the folder has been quiet for a settle period, then
// handed over as one batch.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZacxDev/video-watermarker/internal/processor"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

var videoExtensions = []string{".mp4", ".mov", ".mkv", ".avi", ".m4v", ".webm"}

// Handler processes one settled batch of files. Watcher never calls it
// concurrently with itself.
type Handler func(ctx context.Context, paths []string) error

// IsVideo reports whether path looks like a source video. Files this tool
// wrote are excluded so an output dir inside the watched dir does not loop.
func IsVideo(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	if !slices.Contains(videoExtensions, ext) {
		return false
	}
	return !processor.IsOutputName(base)
}

// pending keeps first-seen order and drops duplicates.
type pending struct {
	order []string
	seen  map[string]bool
}

func (p *pending) add(path string) bool {
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	if p.seen[path] {
		return false
	}
	p.seen[path] = true
	p.order = append(p.order, path)
	return true
}

func (p *pending) take() []string {
	out := p.order
	p.order = nil
	p.seen = nil
	return out
}

func (p *pending) len() int { return len(p.order) }

type Watcher struct {
	dir     string
	settle  time.Duration
	handler Handler
	logger  hclog.Logger
}

func New(dir string, settle time.Duration, handler Handler, logger hclog.Logger) *Watcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if settle <= 0 {
		settle = 3 * time.Second
	}
	return &Watcher{dir: dir, settle: settle, handler: handler, logger: logger}
}

// Run watches until ctx is done. A batch in progress is allowed to finish
// before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", w.dir)
	}
	w.logger.Info("watching for videos", "dir", w.dir, "settle", w.settle)

	var (
		queue   pending
		timer   *time.Timer
		settled <-chan time.Time
		running chan struct{}
	)

	resetTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.NewTimer(w.settle)
		settled = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			if running != nil {
				<-running
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 || !IsVideo(event.Name) {
				continue
			}
			if queue.add(event.Name) {
				w.logger.Debug("queued", "file", event.Name)
			}
			// Any activity restarts the quiet period.
			resetTimer()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-settled:
			settled = nil
			if running != nil || queue.len() == 0 {
				continue
			}
			running = w.dispatch(ctx, queue.take())

		case <-running:
			running = nil
			if queue.len() > 0 {
				resetTimer()
			}
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, paths []string) chan struct{} {
	done := make(chan struct{})
	w.logger.Info("starting batch", "videos", len(paths))
	go func() {
		defer close(done)
		if err := w.handler(ctx, paths); err != nil {
			w.logger.Error("batch failed", "error", err)
		}
	}()
	return done
}
