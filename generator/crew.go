package generator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PipelineExecutionError wraps any failure raised while the crew runs. The
// run is over once this is returned; nothing is retried here.
type PipelineExecutionError struct {
	Task  string
	Role  string
	Cause error
}

func (e *PipelineExecutionError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("pipeline failed: %v", e.Cause)
	}
	return fmt.Sprintf("pipeline task %q (%s) failed: %v", e.Task, e.Role, e.Cause)
}

func (e *PipelineExecutionError) Unwrap() error { return e.Cause }

// Crew executes its tasks strictly in order. Each task sees the kickoff input
// followed by the output of every task before it.
type Crew struct {
	tasks  []TaskSpec
	agents map[string]*Agent

	// OnStage, when set, is called before and after each task.
	OnStage func(StageEvent)
}

// NewCrew binds every task's agent to llm.
func NewCrew(llm LLMClient, tasks []TaskSpec) (*Crew, error) {
	if len(tasks) == 0 {
		return nil, errors.New("crew needs at least one task")
	}
	agents := make(map[string]*Agent, len(tasks))
	for _, t := range tasks {
		if t.Name == "" {
			return nil, errors.New("task name is required")
		}
		if _, ok := agents[t.Agent.Role]; ok {
			continue
		}
		a, err := NewAgent(t.Agent, llm)
		if err != nil {
			return nil, err
		}
		agents[t.Agent.Role] = a
	}
	return &Crew{tasks: tasks, agents: agents}, nil
}

// Kickoff blocks until the last task finishes or one fails.
func (c *Crew) Kickoff(ctx context.Context, input string) (CrewOutput, error) {
	outputs := make([]TaskOutput, 0, len(c.tasks))
	for i, task := range c.tasks {
		if err := ctx.Err(); err != nil {
			return CrewOutput{}, &PipelineExecutionError{Task: task.Name, Role: task.Agent.Role, Cause: err}
		}
		agent := c.agents[task.Agent.Role]
		c.emit(StageEvent{Index: i, Total: len(c.tasks), Task: task.Name, Role: task.Agent.Role})

		started := time.Now()
		text, err := agent.Execute(ctx, task, aggregateContext(input, outputs))
		if err != nil {
			return CrewOutput{}, &PipelineExecutionError{Task: task.Name, Role: task.Agent.Role, Cause: err}
		}
		outputs = append(outputs, TaskOutput{
			Task:      task.Name,
			Agent:     task.Agent.Role,
			Raw:       text,
			StartedAt: started,
			Duration:  time.Since(started),
		})
		c.emit(StageEvent{Index: i, Total: len(c.tasks), Task: task.Name, Role: task.Agent.Role, Done: true})
	}
	return CrewOutput{Raw: outputs[len(outputs)-1].Raw, Tasks: outputs}, nil
}

func (c *Crew) emit(ev StageEvent) {
	if c.OnStage != nil {
		c.OnStage(ev)
	}
}
