package processor

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// State is the lifecycle of the most recent run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// eventBuffer is sized so a slow consumer rarely stalls the worker.
const eventBuffer = 64

// Runner runs one batch at a time on a background goroutine and reports
// through an event channel.
type Runner struct {
	pipeline *Pipeline
	logger   hclog.Logger

	mu    sync.Mutex
	state State
	token *CancelToken
	done  chan struct{}
}

func NewRunner(pipeline *Pipeline, logger hclog.Logger) *Runner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runner{pipeline: pipeline, logger: logger, state: StateIdle}
}

// Start launches batch in the background. The returned channel delivers
// status and progress events, then exactly one DoneEvent, and is then
// closed. Consumers must drain it. Start returns ErrAlreadyRunning while a
// run is active.
func (r *Runner) Start(ctx context.Context, batch Batch) (<-chan Event, error) {
	r.mu.Lock()
	if r.state == StateRunning {
		r.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	token := NewCancelToken()
	done := make(chan struct{})
	r.state = StateRunning
	r.token = token
	r.done = done
	r.mu.Unlock()

	// Copy the job list so callers cannot change it mid-run.
	batch.Jobs = append(batch.Jobs[:0:0], batch.Jobs...)

	events := make(chan Event, eventBuffer)
	go func() {
		defer close(done)
		defer close(events)

		result, err := r.pipeline.Run(ctx, batch, token, func(e Event) { events <- e })

		state := StateFailed
		if err == nil {
			switch result.Status() {
			case StatusCompleted:
				state = StateCompleted
			case StatusCancelled:
				state = StateCancelled
			}
		} else {
			r.logger.Error("batch could not start", "error", err)
		}

		r.mu.Lock()
		r.state = state
		r.mu.Unlock()

		events <- DoneEvent{Result: result, Err: err}
	}()

	return events, nil
}

// Cancel asks the active run to stop before its next job. It reports
// whether a run was active.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning {
		return false
	}
	r.token.Cancel()
	return true
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Wait blocks until the active run, if any, has finished.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}
