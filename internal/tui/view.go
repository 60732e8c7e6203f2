package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	parts := []string{
		m.theme.Title.Render("statusline preview"),
		m.renderLine(),
		m.renderSession(),
		m.log.View(),
		m.theme.Help.Render(" [t] task running • [r] review mode • [q] quit"),
	}
	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m Model) renderLine() string {
	var body string
	switch {
	case m.line == nil:
		body = m.theme.Empty.Render("(no status line)")
	case m.stale:
		body = m.theme.Stale.Render(*m.line + "  (stale)")
	default:
		body = m.theme.Line.Render(*m.line)
	}

	indicator := " "
	if m.manager.InFlight() {
		indicator = m.spinner.View()
	}

	box := m.theme.Border
	if m.width > 8 {
		box = box.Width(m.width - 8)
	}
	return box.Render(indicator + " " + body)
}

func (m Model) renderSession() string {
	flag := func(name string, on bool) string {
		if on {
			return m.theme.On.Render("● " + name)
		}
		return m.theme.Off.Render("○ " + name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s/%s  ", m.theme.Label.Render("model"), orDash(m.session.ModelProvider), orDash(m.session.Model))
	fmt.Fprintf(&b, "%s %s\n", m.theme.Label.Render("cwd"), orDash(m.session.Cwd))
	b.WriteString(flag("task", m.session.TaskRunning))
	b.WriteString("  ")
	b.WriteString(flag("review", m.session.ReviewMode))
	fmt.Fprintf(&b, "  %s %d  %s %s",
		m.theme.Label.Render("attempts"), m.attempts,
		m.theme.Label.Render("failed"), m.theme.Failed.Render(fmt.Sprint(m.failures)))
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
