// internal/tui/progress.go
// Package tui renders live run progress with Bubble Tea. The model
// consumes executor events from a channel and exits when the channel
// closes; pressing q or ctrl+c cancels the run but keeps draining so
// every in-flight trial is still accounted for.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hdanan/sycobench/internal/executor"
	"github.com/hdanan/sycobench/internal/trial"
	"github.com/hdanan/sycobench/internal/util"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	statStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cancelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type eventMsg executor.Event

// closedMsg signals that the event channel was closed after the run
// finished.
type closedMsg struct{}

// ProgressModel is the Bubble Tea model for a live run.
type ProgressModel struct {
	spinner spinner.Model
	bar     progress.Model

	events <-chan executor.Event
	cancel context.CancelFunc

	total     int
	done      int
	skipped   int
	counts    map[trial.Status]int
	lastTrial string
	cancelled bool
	width     int
}

// NewProgress builds the model for a run of total trials. cancel is
// invoked when the user quits early; pass the run context's cancel.
func NewProgress(total int, events <-chan executor.Event, cancel context.CancelFunc) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &ProgressModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		events:  events,
		cancel:  cancel,
		total:   total,
		counts:  make(map[trial.Status]int),
		width:   80,
	}
}

func waitForEvent(events <-chan executor.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

// Init implements tea.Model.
func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Update implements tea.Model.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.cancelled {
				m.cancelled = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			// Keep draining; the channel closes once every spec is
			// terminal or not attempted.
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = util.Min(msg.Width-8, 60)
		return m, nil

	case eventMsg:
		m.done = msg.Done
		m.total = msg.Total
		if msg.Skipped {
			m.skipped++
		} else {
			m.counts[msg.Status]++
		}
		m.lastTrial = msg.Spec.Key()
		return m, waitForEvent(m.events)

	case closedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *ProgressModel) View() string {
	var b strings.Builder

	title := "Running trials"
	if m.cancelled {
		title = cancelStyle.Render("Cancelling, waiting for in-flight trials")
	} else {
		title = titleStyle.Render(title)
	}
	fmt.Fprintf(&b, "\n  %s %s\n\n", m.spinner.View(), title)

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	fmt.Fprintf(&b, "  %s %d/%d\n\n", m.bar.ViewAs(percent), m.done, m.total)

	fmt.Fprintf(&b, "  %s\n", statStyle.Render(m.statLine()))
	if m.lastTrial != "" {
		fmt.Fprintf(&b, "  %s\n", statStyle.Render("last: "+util.TruncateRunes(m.lastTrial, m.width-8)))
	}
	fmt.Fprintf(&b, "\n  %s\n", statStyle.Render("q to cancel"))
	return b.String()
}

func (m *ProgressModel) statLine() string {
	parts := []string{
		fmt.Sprintf("ok %d", m.counts[trial.StatusOK]),
		fmt.Sprintf("failed %d", m.counts[trial.StatusAPIFailure]),
		fmt.Sprintf("empty %d", m.counts[trial.StatusEmptyResponse]),
		fmt.Sprintf("refused %d", m.counts[trial.StatusRefusalDetected]),
	}
	if m.skipped > 0 {
		parts = append(parts, fmt.Sprintf("resumed %d", m.skipped))
	}
	return strings.Join(parts, "  ")
}

// Run drives the model to completion on the current terminal.
func Run(model *ProgressModel) error {
	_, err := tea.NewProgram(model).Run()
	return err
}
