package processor

// Event is a notification from the worker to whoever drives the batch.
type Event interface {
	isEvent()
}

// StatusEvent carries a human-readable status line.
type StatusEvent struct {
	Text string
}

// ProgressEvent carries the overall progress in [0,1].
type ProgressEvent struct {
	Fraction float64
}

// DoneEvent is always the last event of a run. Err is set when the run
// could not start; Result is nil in that case.
type DoneEvent struct {
	Result *BatchResult
	Err    error
}

func (StatusEvent) isEvent()   {}
func (ProgressEvent) isEvent() {}
func (DoneEvent) isEvent()     {}

// progress emits monotonically non-decreasing progress events.
type progress struct {
	total int
	last  float64
	sink  func(Event)
}

func newProgress(total int, sink func(Event)) *progress {
	if sink == nil {
		sink = func(Event) {}
	}
	return &progress{total: total, sink: sink}
}

// job reports progress at offset (0..1) into job i.
func (p *progress) job(i int, offset float64) {
	if p.total <= 0 {
		return
	}
	p.set((float64(i) + offset) / float64(p.total))
}

func (p *progress) set(f float64) {
	if f > 1 {
		f = 1
	}
	if f < p.last {
		return
	}
	p.last = f
	p.sink(ProgressEvent{Fraction: f})
}

func (p *progress) status(text string) {
	p.sink(StatusEvent{Text: text})
}
