package generator

import (
	"context"
	"time"
)

// LLMClient abstracts the model backend so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the full configuration for one pipeline invocation. It is
// built per run and handed to the client constructor by value, so two runs
// with different credentials never observe each other's settings.
type LLMSettings struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

// NewLLM builds the client for settings.Provider.
func NewLLM(settings LLMSettings) (LLMClient, error) {
	switch settings.Provider {
	case "", "openai", "deepseek":
		return NewOpenAILLMFromConfig(&settings)
	case "mock":
		return MockLLM{}, nil
	default:
		return nil, &UnsupportedProviderError{Provider: settings.Provider}
	}
}

// UnsupportedProviderError is returned by NewLLM for unknown providers.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return "llm provider " + e.Provider + " not supported"
}
