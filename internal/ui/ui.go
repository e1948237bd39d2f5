// Package ui implements an interactive terminal progress view using bubbletea's Elm architecture.
//
// The view polls the job tracker on a fixed cadence and renders a progress
// bar until the job reaches a terminal state. Tracker updates are already
// coalesced upstream, so polling faster than the hook's window gains nothing.
package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	jobprogress "github.com/desertthunder/dlx/internal/progress"
)

// pollInterval is the tracker polling cadence.
const pollInterval = time.Second

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).MarginBottom(1)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// tickMsg triggers the next tracker poll.
type tickMsg time.Time

// Model renders the progress of a single job.
type Model struct {
	tracker *jobprogress.Tracker
	id      string
	url     string
	bar     progress.Model
	status  jobprogress.Status
	done    bool
}

// NewModel creates a progress view for the given job identity.
func NewModel(tracker *jobprogress.Tracker, id, url string) Model {
	bar := progress.New(progress.WithDefaultGradient())
	return Model{
		tracker: tracker,
		id:      id,
		url:     url,
		bar:     bar,
		status:  jobprogress.Status{State: jobprogress.StateStarting},
	}
}

// Done reports whether the job reached a terminal state before the view
// exited.
func (m Model) Done() bool { return m.done }

// Status returns the last observed job status.
func (m Model) Status() jobprogress.Status { return m.status }

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements [tea.Model].
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update implements [tea.Model].
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}

	case tickMsg:
		m.status = m.tracker.Get(m.id)
		if m.status.State.Terminal() || m.status.State == jobprogress.StateNotFound {
			m.done = m.status.State.Terminal()
			return m, tea.Quit
		}
		return m, tick()

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// View implements [tea.Model].
func (m Model) View() string {
	s := titleStyle.Render("Downloading "+m.url) + "\n"

	switch m.status.State {
	case jobprogress.StateStarting:
		s += infoStyle.Render("Starting...") + "\n"
	case jobprogress.StateDownloading:
		s += m.bar.ViewAs(m.status.Percent/100) + "\n"
		s += infoStyle.Render("Speed: "+m.status.Speed+"  ETA: "+m.status.ETA) + "\n"
	case jobprogress.StateFinished:
		s += okStyle.Render("✓ Finished: "+m.status.Filename) + "\n"
		s += infoStyle.Render("Size: "+m.status.FileSize) + "\n"
	case jobprogress.StateError:
		s += errStyle.Render("✗ Failed: "+m.status.Error) + "\n"
	case jobprogress.StateNotFound:
		s += errStyle.Render("✗ Job disappeared from the tracker") + "\n"
	}

	s += infoStyle.Render("\nPress q to quit")
	return s
}
