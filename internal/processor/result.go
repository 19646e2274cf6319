package processor

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ZacxDev/video-watermarker/internal/config"
	"github.com/ZacxDev/video-watermarker/internal/ffmpeg"
	"github.com/ZacxDev/video-watermarker/pkg/types"
)

type JobStatus string

const (
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	// JobSkipped marks a job that was never attempted because of a cancel.
	JobSkipped JobStatus = "skipped"
)

// JobOutcome is the recorded result of one job.
type JobOutcome struct {
	Job    types.VideoJob
	Status JobStatus
	// Error is the user-facing message for a failed job.
	Error string
	Class ffmpeg.Class
}

type BatchStatus string

const (
	StatusCompleted BatchStatus = "completed"
	StatusCancelled BatchStatus = "cancelled"
	StatusFailed    BatchStatus = "failed"
)

// BatchResult holds one outcome per job, in job order. All counts are
// derived from Outcomes.
type BatchResult struct {
	ID           string
	Total        int
	Outcomes     []JobOutcome
	WasCancelled bool
	StartedAt    time.Time
	FinishedAt   time.Time
}

func newBatchResult(id string, total int) *BatchResult {
	return &BatchResult{
		ID:        id,
		Total:     total,
		Outcomes:  make([]JobOutcome, 0, total),
		StartedAt: time.Now(),
	}
}

func (r *BatchResult) record(o JobOutcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// cancel marks the run cancelled and every remaining job skipped.
func (r *BatchResult) cancel(remaining []types.VideoJob) {
	r.WasCancelled = true
	for _, job := range remaining {
		r.record(JobOutcome{Job: job, Status: JobSkipped})
	}
}

func (r *BatchResult) finish() {
	r.FinishedAt = time.Now()
}

func (r *BatchResult) count(s JobStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

func (r *BatchResult) Succeeded() int { return r.count(JobSucceeded) }
func (r *BatchResult) Failed() int    { return r.count(JobFailed) }
func (r *BatchResult) Skipped() int   { return r.count(JobSkipped) }

// Processed is the number of jobs that were attempted.
func (r *BatchResult) Processed() int { return r.Succeeded() + r.Failed() }

// ErrorMessages returns the failed jobs' messages in job order.
func (r *BatchResult) ErrorMessages() []string {
	var msgs []string
	for _, o := range r.Outcomes {
		if o.Status == JobFailed {
			msgs = append(msgs, o.Error)
		}
	}
	return msgs
}

// Status classifies the batch. Any per-job error makes it failed, even
// when the run was also cancelled.
func (r *BatchResult) Status() BatchStatus {
	switch {
	case r.Failed() > 0:
		return StatusFailed
	case r.WasCancelled:
		return StatusCancelled
	default:
		return StatusCompleted
	}
}

// Duration is the wall time of the run.
func (r *BatchResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// StatusLine is a one-line summary for a status bar.
func (r *BatchResult) StatusLine() string {
	switch r.Status() {
	case StatusCancelled:
		return fmt.Sprintf("Processing cancelled. %d/%d videos done.", r.Succeeded(), r.Total)
	case StatusFailed:
		return fmt.Sprintf("Processing finished with %d errors.", r.Failed())
	default:
		return fmt.Sprintf("Processing complete (%d/%d succeeded).", r.Succeeded(), r.Total)
	}
}

// Summary is the end-of-batch report. Error listings are truncated.
func (r *BatchResult) Summary() string {
	switch r.Status() {
	case StatusCancelled:
		return fmt.Sprintf("Processing was cancelled. %d of %d videos were done.", r.Succeeded(), r.Total)
	case StatusCompleted:
		return fmt.Sprintf("All %d videos were processed successfully.", r.Total)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred (%d/%d succeeded)", r.Failed(), r.Succeeded(), r.Total)
	if r.WasCancelled {
		b.WriteString(", processing was cancelled")
	}
	b.WriteString(":\n\n")
	for i, msg := range r.ErrorMessages() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + msg)
	}

	summary := b.String()
	if len(summary) > config.MaxSummaryLength {
		summary = truncateUTF8(summary, config.MaxSummaryLength) + "\n\n... (more errors in the log)"
	}
	return summary
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
