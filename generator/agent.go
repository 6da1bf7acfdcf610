package generator

import (
	"context"
	"errors"
)

// Agent binds an AgentSpec to the model client that speaks for it.
type Agent struct {
	Spec AgentSpec
	llm  LLMClient
}

func NewAgent(spec AgentSpec, llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if spec.Role == "" {
		return nil, errors.New("agent role is required")
	}
	if spec.AllowDelegation {
		return nil, errors.New("agent " + spec.Role + ": delegation is not supported")
	}
	return &Agent{Spec: spec, llm: llm}, nil
}

// Execute runs task with the given context and returns the cleaned output.
func (a *Agent) Execute(ctx context.Context, task TaskSpec, taskContext string) (string, error) {
	raw, err := a.llm.Complete(ctx, BuildTaskPrompt(a.Spec, task, taskContext))
	if err != nil {
		return "", err
	}
	return PostProcess(raw)
}
