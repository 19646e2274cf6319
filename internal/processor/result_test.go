package processor

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ZacxDev/video-watermarker/internal/config"
	"github.com/ZacxDev/video-watermarker/pkg/types"
	"github.com/stretchr/testify/assert"
)

func jobs(n int) []types.VideoJob {
	out := make([]types.VideoJob, n)
	for i := range out {
		out[i] = types.VideoJob{SourcePath: fmt.Sprintf("v%d.mp4", i)}
	}
	return out
}

func TestBatchResultStatus(t *testing.T) {
	js := jobs(4)

	r := newBatchResult("id", 4)
	for _, j := range js {
		r.record(JobOutcome{Job: j, Status: JobSucceeded})
	}
	assert.Equal(t, StatusCompleted, r.Status())
	assert.Equal(t, "All 4 videos were processed successfully.", r.Summary())

	r = newBatchResult("id", 4)
	r.record(JobOutcome{Job: js[0], Status: JobSucceeded})
	r.cancel(js[1:])
	assert.Equal(t, StatusCancelled, r.Status())
	assert.Equal(t, 1, r.Processed())
	assert.Equal(t, 3, r.Skipped())
	assert.Equal(t, "Processing cancelled. 1/4 videos done.", r.StatusLine())

	r = newBatchResult("id", 4)
	r.record(JobOutcome{Job: js[0], Status: JobFailed, Error: "v0.mp4: boom"})
	r.record(JobOutcome{Job: js[1], Status: JobSucceeded})
	r.cancel(js[2:])
	assert.Equal(t, StatusFailed, r.Status())
	assert.Equal(t, 2, r.Processed())
	assert.Equal(t, []string{"v0.mp4: boom"}, r.ErrorMessages())
	assert.Equal(t, "1 errors occurred (1/4 succeeded), processing was cancelled:\n\n- v0.mp4: boom", r.Summary())
}

func TestBatchResultSummaryTruncates(t *testing.T) {
	r := newBatchResult("id", 50)
	for i, j := range jobs(50) {
		r.record(JobOutcome{Job: j, Status: JobFailed, Error: fmt.Sprintf("v%d.mp4: %s", i, strings.Repeat("é", 40))})
	}

	s := r.Summary()
	assert.True(t, strings.HasSuffix(s, "... (more errors in the log)"))
	assert.LessOrEqual(t, len(strings.TrimSuffix(s, "\n\n... (more errors in the log)")), config.MaxSummaryLength)
	assert.True(t, utf8.ValidString(s))
}

func TestCancelToken(t *testing.T) {
	var nilToken *CancelToken
	assert.False(t, nilToken.Cancelled())

	tok := NewCancelToken()
	assert.False(t, tok.Cancelled())
	tok.Cancel()
	tok.Cancel()
	assert.True(t, tok.Cancelled())
}

func TestProgressNeverDecreases(t *testing.T) {
	var got []float64
	p := newProgress(4, func(e Event) { got = append(got, e.(ProgressEvent).Fraction) })

	p.job(1, 0.95)
	p.job(1, 0.05)
	p.job(2, 0)
	p.set(3)

	assert.InDeltaSlice(t, []float64{0.4875, 0.5, 1}, got, 1e-9)
}

func TestBuildJobs(t *testing.T) {
	js := BuildJobs([]string{
		"/in/a/clip.mov",
		"/in/b/clip.mp4",
		"/in/c/CLIP.mkv",
		"/in/other.mp4",
	}, "/out")

	assert.Equal(t, "/out/clip_watermarked.mp4", js[0].OutputPath)
	assert.Equal(t, "/out/clip_watermarked_2.mp4", js[1].OutputPath)
	assert.Equal(t, "/out/CLIP_watermarked_3.mp4", js[2].OutputPath)
	assert.Equal(t, "/out/other_watermarked.mp4", js[3].OutputPath)
	assert.Equal(t, "/in/b/clip.mp4", js[1].SourcePath)
}

func TestIsOutputName(t *testing.T) {
	assert.True(t, IsOutputName("/out/clip_watermarked.mp4"))
	assert.True(t, IsOutputName("/out/clip_watermarked_2.mp4"))
	assert.True(t, IsOutputName("clip_watermarked_13.mp4"))
	assert.False(t, IsOutputName("/in/clip.mp4"))
	assert.False(t, IsOutputName("/in/clip_2.mp4"))
	assert.False(t, IsOutputName("/in/clip_watermarked_x.mp4"))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "holiday_watermarked.mp4", OutputName("/videos/holiday.MOV"))
	assert.Equal(t, "a.b_watermarked.mp4", OutputName("a.b.avi"))
	assert.Equal(t, "noext_watermarked.mp4", OutputName("noext"))
}
