package tui

import (
	"context"

	"github.com/ZacxDev/video-watermarker/internal/processor"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case EventMsg:
		return m.handleEvent(msg)
	case EventsClosedMsg:
		m.Running = false
		m.events = nil
		return m, nil
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.Running {
			m.runner.Cancel()
		}
		return m, tea.Quit
	case "c":
		if m.Running && m.runner.Cancel() {
			m.Status = "Cancelling after the current video..."
		}
		return m, nil
	case "enter":
		return m.start()
	}

	if m.Running {
		return m, nil
	}

	if dx, dy, ok := nudge(msg.String()); ok {
		m.Position = m.Position.Nudge(dx, dy)
	}
	return m, nil
}

func nudge(key string) (float64, float64, bool) {
	switch key {
	case "left":
		return -stepCoarse, 0, true
	case "right":
		return stepCoarse, 0, true
	case "up":
		return 0, -stepCoarse, true
	case "down":
		return 0, stepCoarse, true
	case "shift+left":
		return -stepFine, 0, true
	case "shift+right":
		return stepFine, 0, true
	case "shift+up":
		return 0, -stepFine, true
	case "shift+down":
		return 0, stepFine, true
	}
	return 0, 0, false
}

func (m Model) start() (tea.Model, tea.Cmd) {
	if m.Running {
		return m, nil
	}

	batch := m.batch
	batch.Position = m.Position

	events, err := m.runner.Start(context.Background(), batch)
	if err != nil {
		m.Err = err
		return m, nil
	}

	m.Running = true
	m.Err = nil
	m.Result = nil
	m.Progress = 0
	m.events = events
	return m, waitForEvent(events)
}

// handleEvent applies one worker event and waits for the next.
func (m Model) handleEvent(msg EventMsg) (tea.Model, tea.Cmd) {
	switch e := msg.Event.(type) {
	case processor.StatusEvent:
		m.Status = e.Text
	case processor.ProgressEvent:
		m.Progress = e.Fraction
	case processor.DoneEvent:
		m.Result = e.Result
		m.Err = e.Err
		m.Progress = 1
		if e.Result != nil {
			m.Status = e.Result.StatusLine()
		}
	}

	if m.events == nil {
		return m, nil
	}
	return m, waitForEvent(m.events)
}
