package generator

import "time"

// AgentSpec describes one role in the crew.
type AgentSpec struct {
	Key             string
	Role            string
	Goal            string
	Backstory       string
	AllowDelegation bool
}

// TaskSpec is a unit of work assigned to exactly one agent.
type TaskSpec struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          AgentSpec
}

// TaskOutput is what one stage produced.
type TaskOutput struct {
	Task      string
	Agent     string
	Raw       string
	StartedAt time.Time
	Duration  time.Duration
}

// CrewOutput is the result of a full kickoff; Raw is the last stage's text.
type CrewOutput struct {
	Raw   string
	Tasks []TaskOutput
}

// StageEvent reports progress through the crew.
type StageEvent struct {
	Index int
	Total int
	Task  string
	Role  string
	Done  bool
}
