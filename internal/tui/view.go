package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ZacxDev/video-watermarker/internal/config"
	"github.com/ZacxDev/video-watermarker/internal/layout"
	"github.com/ZacxDev/video-watermarker/internal/processor"
	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Video Watermarker"))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("%d videos -> %s", len(m.batch.Jobs), m.batch.OutputDir)))
	b.WriteString("\n\n")

	b.WriteString(CanvasStyle.Render(m.canvas()))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("position %.2f, %.2f", m.Position.X, m.Position.Y)))
	b.WriteString("\n\n")

	b.WriteString(progressBar(m.Progress, canvasWidth))
	b.WriteString("\n")
	b.WriteString(StatusStyle.Render(m.Status))
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(ErrorStyle.Render("Error: " + m.Err.Error()))
		b.WriteString("\n")
	}
	if m.Result != nil && !m.Running {
		style := StatusStyle
		switch m.Result.Status() {
		case processor.StatusFailed:
			style = ErrorStyle
		case processor.StatusCancelled:
			style = WarningStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.Result.Summary()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(helpText(m.Running)))
	return b.String()
}

// canvas draws the preview frame with the watermark label placed by the
// same mapping the encoder uses, with no margin.
func (m Model) canvas() string {
	label := m.batch.Watermark.Text
	if utf8.RuneCountInString(label) > canvasWidth {
		label = string([]rune(label)[:canvasWidth])
	}
	labelWidth := lipgloss.Width(label)

	x, y := layout.MapToPixels(m.Position, labelWidth, 1, canvasWidth, canvasHeight, config.PreviewMargin)

	rows := make([]string, canvasHeight)
	blank := strings.Repeat("·", canvasWidth)
	for i := range rows {
		rows[i] = blank
	}
	if label != "" {
		left := strings.Repeat("·", x)
		right := strings.Repeat("·", max(0, canvasWidth-x-labelWidth))
		rows[y] = left + WatermarkStyle.Render(label) + right
	}
	return strings.Join(rows, "\n")
}

func progressBar(f float64, width int) string {
	filled := int(f * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("█", filled), strings.Repeat(" ", width-filled), f*100)
}

func helpText(running bool) string {
	if running {
		return "c: cancel after current video • q: quit"
	}
	return "←↑↓→: move • shift+arrows: fine move • enter: start • q: quit"
}
