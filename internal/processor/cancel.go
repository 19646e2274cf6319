package processor

import "sync/atomic"

// CancelToken is a cooperative stop request. The pipeline checks it before
// each job; a job that already started runs to completion.
type CancelToken struct {
	cancelled atomic.Bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests a stop. It is safe to call more than once and from any
// goroutine.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

func (t *CancelToken) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}
