package processor

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrAlreadyRunning is returned when a batch is started while another one
// is still running.
var ErrAlreadyRunning = errors.New("a batch is already running")

// ConfigurationError means the batch could not start because of its inputs.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// FatalRenderError means the watermark itself could not be produced, so no
// job was attempted.
type FatalRenderError struct {
	Cause error
}

func (e *FatalRenderError) Error() string {
	return fmt.Sprintf("cannot render watermark: %v", e.Cause)
}

func (e *FatalRenderError) Unwrap() error { return e.Cause }

// ResourceError fails a single job when free memory is below the minimum.
type ResourceError struct {
	AvailableMB uint64
	RequiredMB  uint64
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("insufficient memory: %d MB available, %d MB required", e.AvailableMB, e.RequiredMB)
}
