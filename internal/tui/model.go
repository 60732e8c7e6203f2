package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/statusline/internal/statusline"
)

// maxLogRows bounds the in-session outcome table.
const maxLogRows = 8

type tickMsg time.Time

// outcomeMsg carries an attempt's outcome into the event loop.
type outcomeMsg statusline.Outcome

// Model previews the status line. Every gate call happens inside Update,
// which bubbletea runs on a single goroutine.
type Model struct {
	manager  *statusline.Manager
	session  statusline.Request
	interval time.Duration
	outcomes statusline.ChanSink

	line      *string
	stale     bool
	attempts  int
	failures  int
	updatedAt time.Time

	width   int
	theme   Theme
	spinner spinner.Model
	log     table.Model
	rows    []table.Row
}

// New returns a Model driving manager, which must be non-nil. A render is
// requested every interval.
func New(manager *statusline.Manager, session statusline.Request, interval time.Duration) Model {
	theme := NewDefaultTheme()

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Time", Width: 8},
			{Title: "Outcome", Width: 8},
			{Title: "Line", Width: 48},
		}),
		table.WithHeight(maxLogRows),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	styles.Selected = theme.Selection
	t.SetStyles(styles)

	return Model{
		manager:  manager,
		session:  session,
		interval: interval,
		outcomes: statusline.NewChanSink(),
		theme:    theme,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Spinner)),
		log:      t,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return tickMsg(time.Now()) },
		waitForOutcome(m.outcomes),
		m.spinner.Tick,
	)
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitForOutcome blocks until the in-flight attempt reports.
func waitForOutcome(ch statusline.ChanSink) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(<-ch)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "t":
			m.session.TaskRunning = !m.session.TaskRunning
			m.request()
		case "r":
			m.session.ReviewMode = !m.session.ReviewMode
			m.request()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.request()
		return m, tick(m.interval)

	case outcomeMsg:
		m.manager.MarkComplete()
		m.apply(statusline.Outcome(msg))
		return m, waitForOutcome(m.outcomes)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) request() {
	if m.manager.MaybeRequest(m.session, m.outcomes) {
		m.attempts++
	}
}

// apply folds an outcome into the view. A failure keeps the previous line.
func (m *Model) apply(o statusline.Outcome) {
	now := time.Now()
	var row table.Row

	switch o.Kind {
	case statusline.KindUpdated:
		m.line = o.Line
		m.stale = false
		m.updatedAt = now
		text := "(none)"
		if o.Line != nil {
			text = *o.Line
		}
		row = table.Row{now.Format("15:04:05"), o.Kind.String(), text}
	default:
		m.failures++
		m.stale = m.line != nil
		row = table.Row{now.Format("15:04:05"), o.Kind.String(), ""}
	}

	m.rows = append([]table.Row{row}, m.rows...)
	if len(m.rows) > maxLogRows {
		m.rows = m.rows[:maxLogRows]
	}
	m.log.SetRows(m.rows)
}

// Line returns the line currently shown, or nil.
func (m Model) Line() *string { return m.line }
