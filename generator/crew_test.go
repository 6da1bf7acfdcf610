package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// scriptedLLM answers each call with the next entry of replies and records the prompts.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	failAt  int
	prompts []Prompt
}

func (s *scriptedLLM) Complete(_ context.Context, p Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	n := len(s.prompts)
	if s.failAt == n {
		return "", errors.New("rate limited")
	}
	if n > len(s.replies) {
		return "", errors.New("unexpected call")
	}
	return s.replies[n-1], nil
}

func TestCrewRunsTasksInOrder(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"the plan", "the draft", "  the final article  "}}
	crew, err := NewCrew(llm, ResearchTasks())
	if err != nil {
		t.Fatalf("new crew: %v", err)
	}

	var events []StageEvent
	crew.OnStage = func(ev StageEvent) { events = append(events, ev) }

	out, err := crew.Kickoff(context.Background(), "transcript text")
	if err != nil {
		t.Fatalf("kickoff: %v", err)
	}
	if out.Raw != "the final article" {
		t.Errorf("expected trimmed editor output, got %q", out.Raw)
	}
	if len(out.Tasks) != 3 {
		t.Fatalf("expected 3 task outputs, got %d", len(out.Tasks))
	}
	wantOrder := []string{"plan", "write", "edit"}
	for i, name := range wantOrder {
		if out.Tasks[i].Task != name {
			t.Errorf("task %d: expected %s, got %s", i, name, out.Tasks[i].Task)
		}
	}

	if !strings.HasPrefix(llm.prompts[0].System, "You are Content Planner.") {
		t.Errorf("planner system prompt: %q", llm.prompts[0].System)
	}
	if !strings.Contains(llm.prompts[0].User, "transcript text") {
		t.Error("planner should see the transcripts")
	}
	if !strings.Contains(llm.prompts[1].User, "the plan") {
		t.Error("writer should see the plan")
	}
	if !strings.Contains(llm.prompts[2].User, "the draft") {
		t.Error("editor should see the draft")
	}
	if !strings.HasPrefix(llm.prompts[2].System, "You are Editor.") {
		t.Errorf("editor system prompt: %q", llm.prompts[2].System)
	}

	if len(events) != 6 {
		t.Fatalf("expected 6 stage events, got %d", len(events))
	}
	if events[0].Task != "plan" || events[0].Done {
		t.Errorf("first event should be plan start, got %+v", events[0])
	}
	if last := events[5]; last.Task != "edit" || !last.Done || last.Total != 3 {
		t.Errorf("last event should be edit done, got %+v", last)
	}
}

func TestCrewWrapsStageFailure(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"plan", "draft", "final"}, failAt: 2}
	crew, err := NewCrew(llm, ResearchTasks())
	if err != nil {
		t.Fatalf("new crew: %v", err)
	}

	_, err = crew.Kickoff(context.Background(), "input")
	var pe *PipelineExecutionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineExecutionError, got %v", err)
	}
	if pe.Task != "write" || pe.Role != "Content Writer" {
		t.Errorf("unexpected failing stage %+v", pe)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected library message in error, got %q", err.Error())
	}
	if len(llm.prompts) != 2 {
		t.Errorf("editor must not run after a failure, got %d calls", len(llm.prompts))
	}
}

func TestCrewEmptyOutputFails(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"   \n"}}
	crew, _ := NewCrew(llm, ResearchTasks())
	_, err := crew.Kickoff(context.Background(), "input")
	if !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestCrewCancelledContext(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"a", "b", "c"}}
	crew, _ := NewCrew(llm, ResearchTasks())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := crew.Kickoff(ctx, "input")
	var pe *PipelineExecutionError
	if !errors.As(err, &pe) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled pipeline error, got %v", err)
	}
	if len(llm.prompts) != 0 {
		t.Errorf("expected no model calls, got %d", len(llm.prompts))
	}
}

func TestNewCrewValidation(t *testing.T) {
	if _, err := NewCrew(&scriptedLLM{}, nil); err == nil {
		t.Error("expected error for empty task list")
	}
	if _, err := NewCrew(nil, ResearchTasks()); err == nil {
		t.Error("expected error for nil llm")
	}
	delegating := ResearchTasks()
	delegating[1].Agent.AllowDelegation = true
	if _, err := NewCrew(&scriptedLLM{}, delegating); err == nil {
		t.Error("expected delegation to be rejected")
	}
}

func TestResearchTasksRoster(t *testing.T) {
	tasks := ResearchTasks()
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Agent.AllowDelegation {
			t.Errorf("%s: delegation must be off", task.Name)
		}
		if task.Description == "" || task.ExpectedOutput == "" {
			t.Errorf("%s: missing description or expected output", task.Name)
		}
	}
	if tasks[0].Agent.Key != "planner" || tasks[1].Agent.Key != "writer" || tasks[2].Agent.Key != "editor" {
		t.Error("unexpected agent order")
	}
}

func TestMockLLMProducesKeywordSections(t *testing.T) {
	crew, err := NewCrew(MockLLM{}, ResearchTasks())
	if err != nil {
		t.Fatal(err)
	}
	out, err := crew.Kickoff(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Raw, "**Conclusion**") {
		t.Errorf("mock editor output should end in a Conclusion section: %q", out.Raw)
	}
}
