// Package tui is an interactive terminal front end: it positions the
// watermark on a character-cell preview and runs the batch in the
// background, showing its events as they arrive.
package tui

import (
	"context"

	"github.com/ZacxDev/video-watermarker/internal/processor"
	"github.com/ZacxDev/video-watermarker/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	// Preview canvas size in character cells.
	canvasWidth  = 48
	canvasHeight = 14

	stepCoarse = 0.05
	stepFine   = 0.01
)

// Starter is the part of processor.Runner the model drives.
type Starter interface {
	Start(ctx context.Context, batch processor.Batch) (<-chan processor.Event, error)
	Cancel() bool
}

// Model holds the interactive state. Only Update mutates it.
type Model struct {
	runner Starter
	batch  processor.Batch

	Position types.NormalizedPosition
	Running  bool
	Status   string
	Progress float64
	Result   *processor.BatchResult
	Err      error

	events <-chan processor.Event
}

// NewModel creates a model for batch. The batch position is the initial
// preview position.
func NewModel(runner Starter, batch processor.Batch) Model {
	return Model{
		runner:   runner,
		batch:    batch,
		Position: batch.Position.Clamp(),
		Status:   "Ready. Arrow keys move the watermark, enter starts.",
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Run starts the program and blocks until the user quits.
func Run(runner Starter, batch processor.Batch) (Model, error) {
	final, err := tea.NewProgram(NewModel(runner, batch), tea.WithAltScreen()).Run()
	if err != nil {
		return Model{}, err
	}
	return final.(Model), nil
}
