package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CosmoTheDev/hashms/internal/monitor"
)

const historySize = 8

// Info describes what is being watched, for the header panel.
type Info struct {
	ProcessName string
	Outfile     string
	Cadence     string
	Channels    []string
}

type eventMsg monitor.Event
type doneMsg monitor.Result

// Model is the bubbletea model of the live watch dashboard. It is only
// mutated by the bubbletea event loop.
type Model struct {
	info     Info
	cancel   context.CancelFunc
	width    int
	last     monitor.Event
	started  bool
	history  []string
	done     bool
	result   monitor.Result
	stopping bool
}

// NewModel creates the dashboard model. cancel stops the monitor when the
// user quits.
func NewModel(info Info, cancel context.CancelFunc) Model {
	return Model{info: info, cancel: cancel}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.stopping = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case eventMsg:
		evt := monitor.Event(msg)
		m.last = evt
		if evt.Kind == monitor.EventStarted {
			m.started = true
		}
		if line := historyLine(evt); line != "" {
			m.history = append(m.history, line)
			if len(m.history) > historySize {
				m.history = m.history[len(m.history)-historySize:]
			}
		}
	case doneMsg:
		m.done = true
		m.result = monitor.Result(msg)
		return m, tea.Quit
	}
	return m, nil
}

func historyLine(evt monitor.Event) string {
	ts := evt.Time.Format("15:04:05")
	switch evt.Kind {
	case monitor.EventStarted:
		return fmt.Sprintf("%s  watching pid %s, outfile %s", ts, evt.Handle, evt.Progress)
	case monitor.EventNotified:
		failed := 0
		for _, o := range evt.Outcomes {
			if !o.OK() {
				failed++
			}
		}
		s := fmt.Sprintf("%s  notified: %s", ts, evt.Message)
		if failed > 0 {
			s += fmt.Sprintf(" (%d channel(s) failed)", failed)
		}
		return s
	case monitor.EventSuppressed:
		return fmt.Sprintf("%s  %s -> %s lines, limit reached, not notifying", ts, evt.Baseline, evt.Progress)
	case monitor.EventStopped:
		return fmt.Sprintf("%s  stopped: %s", ts, evt.Reason)
	}
	return ""
}

// View implements tea.Model.
func (m Model) View() string {
	width := max(40, m.width-2)

	header := titleStyle.Render("hashms · " + m.info.ProcessName)

	row := func(label, value string) string {
		return labelStyle.Render(label) + value
	}
	outfile := m.info.Outfile
	if outfile == "" {
		outfile = dimStyle.Render("(none)")
	}
	status := warnStyle.Render("starting")
	switch {
	case m.done:
		status = errStyle.Render("stopped: " + m.result.Reason.String())
	case m.stopping:
		status = warnStyle.Render("stopping")
	case m.started:
		status = okStyle.Render("running")
	}
	next := dimStyle.Render("-")
	if !m.last.Next.IsZero() {
		next = m.last.Next.Format(time.Kitchen)
	}
	budget := fmt.Sprintf("%d / %d", m.last.Budget.Sent, m.last.Budget.Limit)
	if m.last.Budget.Limit > 0 && m.last.Budget.Exhausted() {
		budget = warnStyle.Render(budget + " (limit reached)")
	}
	channels := strings.Join(m.info.Channels, ", ")
	if channels == "" {
		channels = dimStyle.Render("(none)")
	}

	summary := panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		panelHeaderStyle.Render("Status"),
		"",
		row("state", status),
		row("pid", string(m.last.Handle)),
		row("outfile", outfile),
		row("lines", m.last.Progress.String()),
		row("sent", budget),
		row("cadence", m.info.Cadence),
		row("next check", next),
		row("channels", channels),
	))

	var hist []string
	for _, h := range m.history {
		hist = append(hist, dimStyle.Render(h))
	}
	if len(hist) == 0 {
		hist = append(hist, dimStyle.Render("no events yet"))
	}
	events := panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		append([]string{panelHeaderStyle.Render("Events"), ""}, hist...)...,
	))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		summary,
		events,
		dimStyle.Render("q quit"),
	)
}

// Dashboard runs a monitor behind the live terminal view.
type Dashboard struct {
	program *tea.Program
}

// New creates a Dashboard. Pass Observe as the monitor's Observer.
func New(info Info, cancel context.CancelFunc) *Dashboard {
	return &Dashboard{program: tea.NewProgram(NewModel(info, cancel), tea.WithAltScreen())}
}

// Observe forwards a monitor event to the view.
func (d *Dashboard) Observe(evt monitor.Event) {
	d.program.Send(eventMsg(evt))
}

// Run starts run in its own goroutine and shows the dashboard until the
// monitor stops or the user quits. It returns the monitor's result.
func (d *Dashboard) Run(ctx context.Context, run func(context.Context) monitor.Result) (monitor.Result, error) {
	results := make(chan monitor.Result, 1)
	go func() {
		res := run(ctx)
		results <- res
		d.program.Send(doneMsg(res))
	}()
	if _, err := d.program.Run(); err != nil {
		return monitor.Result{}, fmt.Errorf("dashboard: %w", err)
	}
	return <-results, nil
}
