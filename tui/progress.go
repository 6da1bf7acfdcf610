// Package tui renders the progress of a CLI generate run.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"research_article_generator/research"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// EventMsg carries one runner event into the program.
type EventMsg research.Event

// DoneMsg ends the program with the run outcome.
type DoneMsg struct {
	Result *research.Result
	Err    error
}

// Progress is a bubbletea model listing finished steps under a spinner for
// the current one.
type Progress struct {
	spinner spinner.Model
	files   string
	current string
	lines   []string
	done    bool
	result  *research.Result
	err     error
}

func NewProgress() Progress {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = titleStyle
	return Progress{spinner: s, current: "Generating research article..."}
}

// Outcome returns what DoneMsg delivered.
func (m Progress) Outcome() (*research.Result, error) {
	return m.result, m.err
}

func (m Progress) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The run keeps going in the background; ctrl+c only stops the display.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case EventMsg:
		m.apply(research.Event(msg))
		return m, nil

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Progress) apply(ev research.Event) {
	switch ev.Type {
	case research.EventRunStarted:
		m.files = ev.Message
	case research.EventCredentialVerified:
		m.lines = append(m.lines, ev.Message)
	case research.EventStageStarted:
		m.current = fmt.Sprintf("Step %d/%d: %s working on %s", ev.Step, ev.Steps, ev.Role, ev.Stage)
	case research.EventStageCompleted:
		m.lines = append(m.lines, fmt.Sprintf("Step %d/%d: %s done", ev.Step, ev.Steps, ev.Stage))
		m.current = "Generating research article..."
	case research.EventDocumentReady:
		m.current = ""
	}
}

func (m Progress) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Research Article Generator"))
	b.WriteString("\n")
	if m.files != "" {
		b.WriteString(dimStyle.Render(m.files))
		b.WriteString("\n")
	}
	for _, l := range m.lines {
		b.WriteString(doneStyle.Render("✓ " + l))
		b.WriteString("\n")
	}
	switch {
	case m.err != nil:
		for _, l := range research.UserMessage(m.err) {
			b.WriteString(errStyle.Render(l))
			b.WriteString("\n")
		}
	case m.done:
		b.WriteString(doneStyle.Render("Research article generated successfully!"))
		b.WriteString("\n")
	case m.current != "":
		b.WriteString(m.spinner.View() + " " + m.current + "\n")
	}
	return b.String()
}
