package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"cbridge/internal/buildpipeline"
)

// StatusPrinter is a ProgressSink that prints one line per finished stage.
type StatusPrinter struct {
	W      io.Writer
	Styled bool
	// Width caps the line width; 0 means 80.
	Width int
}

func (p *StatusPrinter) OnEvent(ev buildpipeline.Event) {
	if p == nil || p.W == nil || ev.Status == buildpipeline.StatusWorking {
		return
	}
	label := statusLabel(ev.Status)
	status := fmt.Sprintf("%6s", label)
	if p.Styled {
		status = styleStatus(label).Render(status)
	}
	subject := stageLabel(ev.Stage)
	if ev.Package != "" {
		subject += " " + ev.Package
	}
	width := p.Width
	if width <= 0 {
		width = 80
	}
	line := fmt.Sprintf("  %s %s", status, truncate(subject, width-10))
	if ev.Elapsed > 0 {
		line += fmt.Sprintf(" (%.2f ms)", float64(ev.Elapsed.Microseconds())/1000)
	}
	fmt.Fprintln(p.W, line)
}

func statusLabel(status buildpipeline.Status) string {
	switch status {
	case buildpipeline.StatusDone:
		return "done"
	case buildpipeline.StatusError:
		return "error"
	default:
		return string(status)
	}
}

func stageLabel(stage buildpipeline.Stage) string {
	switch stage {
	case buildpipeline.StageDiscover:
		return "discovered"
	case buildpipeline.StageLayout:
		return "computed layouts"
	case buildpipeline.StageRender:
		return "rendered header"
	case buildpipeline.StageWrite:
		return "wrote header"
	case buildpipeline.StageCheck:
		return "checked header"
	default:
		return string(stage)
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
