package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"research_article_generator/research"
)

func step(m Progress, msg tea.Msg) (Progress, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Progress), cmd
}

func TestProgressFollowsStages(t *testing.T) {
	m := NewProgress()
	m, _ = step(m, EventMsg{Type: research.EventRunStarted, Message: "Uploaded Files: a.txt"})
	m, _ = step(m, EventMsg{Type: research.EventCredentialVerified, Message: "API connection successful!"})
	m, _ = step(m, EventMsg{Type: research.EventStageStarted, Stage: "plan", Role: "Content Planner", Step: 1, Steps: 3})

	view := m.View()
	for _, want := range []string{"Uploaded Files: a.txt", "API connection successful!", "Step 1/3: Content Planner working on plan"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m, _ = step(m, EventMsg{Type: research.EventStageCompleted, Stage: "plan", Step: 1, Steps: 3})
	if !strings.Contains(m.View(), "Step 1/3: plan done") {
		t.Errorf("completed stage not listed:\n%s", m.View())
	}
}

func TestProgressDone(t *testing.T) {
	m := NewProgress()
	res := &research.Result{RunID: "r1"}
	m, cmd := step(m, DoneMsg{Result: res})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("cmd did not quit")
	}
	got, err := m.Outcome()
	if got != res || err != nil {
		t.Errorf("Outcome = %v, %v", got, err)
	}
	if !strings.Contains(m.View(), "Research article generated successfully!") {
		t.Errorf("view = %s", m.View())
	}
}

func TestProgressFailure(t *testing.T) {
	m := NewProgress()
	m, _ = step(m, DoneMsg{Err: &research.MissingInputError{Field: research.FieldAPIKey}})
	if !strings.Contains(m.View(), "Please enter your OpenAI API Key.") {
		t.Errorf("view = %s", m.View())
	}
	if _, err := m.Outcome(); !errors.As(err, new(*research.MissingInputError)) {
		t.Errorf("Outcome err = %v", err)
	}
}
