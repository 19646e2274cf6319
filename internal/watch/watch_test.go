package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZacxDev/video-watermarker/internal/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVideo(t *testing.T) {
	assert.True(t, IsVideo("/in/clip.mp4"))
	assert.True(t, IsVideo("/in/CLIP.MOV"))
	assert.False(t, IsVideo("/in/clip_watermarked.mp4"))
	assert.False(t, IsVideo("/in/notes.txt"))
	assert.False(t, IsVideo("/in/.clip.mp4"))
}

func TestIsVideoSkipsRenamedOutputs(t *testing.T) {
	jobs := processor.BuildJobs([]string{"/w/a.mp4", "/w/a.mov", "/w/A.mkv"}, "/w")
	for _, j := range jobs {
		assert.False(t, IsVideo(j.OutputPath), j.OutputPath)
	}
	assert.True(t, IsVideo("/w/a_2.mp4"))
}

func TestPending(t *testing.T) {
	var p pending
	assert.True(t, p.add("a"))
	assert.True(t, p.add("b"))
	assert.False(t, p.add("a"))
	assert.Equal(t, 2, p.len())
	assert.Equal(t, []string{"a", "b"}, p.take())
	assert.Equal(t, 0, p.len())
	assert.True(t, p.add("a"))
}

func TestWatcherBatchesSettledFiles(t *testing.T) {
	dir := t.TempDir()
	batches := make(chan []string, 4)

	w := New(dir, 200*time.Millisecond, func(_ context.Context, paths []string) error {
		batches <- paths
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	for _, name := range []string{"one.mp4", "two.mov", "skip.txt", "one_watermarked.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	select {
	case paths := <-batches:
		assert.ElementsMatch(t, []string{filepath.Join(dir, "one.mp4"), filepath.Join(dir, "two.mov")}, paths)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch dispatched")
	}

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), time.Second, func(context.Context, []string) error { return nil }, nil)
	assert.Error(t, w.Run(context.Background()))
}
