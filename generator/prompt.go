package generator

import (
	"fmt"
	"strings"
)

// Prompt is one system plus user message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

const contextDivider = "\n\n----------\n\n"

// BuildTaskPrompt renders the persona of agent as the system message and the
// task, its acceptance criteria and the accumulated context as the user message.
func BuildTaskPrompt(agent AgentSpec, task TaskSpec, context string) Prompt {
	system := fmt.Sprintf("You are %s. %s\nYour personal goal is: %s", agent.Role, agent.Backstory, agent.Goal)

	var sb strings.Builder
	sb.WriteString("Current Task: ")
	sb.WriteString(task.Description)
	sb.WriteString("\n\nThis is the expected criteria for your final answer: ")
	sb.WriteString(task.ExpectedOutput)
	sb.WriteString("\nYou MUST return the actual complete content as the final answer, not a summary.")
	if strings.TrimSpace(context) != "" {
		sb.WriteString("\n\nThis is the context you're working with:\n")
		sb.WriteString(context)
	}

	return Prompt{
		System: system,
		User:   sb.String(),
	}
}

// aggregateContext joins the run input with every earlier stage's output.
func aggregateContext(input string, outputs []TaskOutput) string {
	parts := make([]string, 0, len(outputs)+1)
	if strings.TrimSpace(input) != "" {
		parts = append(parts, input)
	}
	for _, o := range outputs {
		parts = append(parts, o.Raw)
	}
	return strings.Join(parts, contextDivider)
}
