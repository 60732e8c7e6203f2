// Package tui is the interactive preview host for the status line: it
// drives the render gate from the bubbletea event loop.
package tui

import "github.com/charmbracelet/lipgloss"

// Theme centralizes styling for the preview.
type Theme struct {
	Border    lipgloss.Style
	Title     lipgloss.Style
	Line      lipgloss.Style
	Stale     lipgloss.Style
	Empty     lipgloss.Style
	Failed    lipgloss.Style
	Label     lipgloss.Style
	On        lipgloss.Style
	Off       lipgloss.Style
	Help      lipgloss.Style
	Spinner   lipgloss.Style
	Selection lipgloss.Style
}

func NewDefaultTheme() Theme {
	purple := lipgloss.Color("#874BFD")

	return Theme{
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1),
		Line:      lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Stale:     lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true),
		Empty:     lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		Failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		Label:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF")),
		On:        lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		Off:       lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
		Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Spinner:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		Selection: lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
	}
}
