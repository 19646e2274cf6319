package tui

import "github.com/ZacxDev/video-watermarker/internal/processor"

// EventMsg wraps one event from the batch worker.
type EventMsg struct {
	Event processor.Event
}

// EventsClosedMsg is sent when the worker's event channel is closed.
type EventsClosedMsg struct{}
