package tui

import (
	"github.com/ZacxDev/video-watermarker/internal/processor"
	tea "github.com/charmbracelet/bubbletea"
)

// waitForEvent reads the next worker event. The model re-issues it after
// every EventMsg until the channel closes.
func waitForEvent(events <-chan processor.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg{Event: e}
	}
}
