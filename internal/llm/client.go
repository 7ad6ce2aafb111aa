package llm

import (
	"context"
	"fmt"

	"github.com/jonathan/content-studio/internal/config"
)

// Request is a single chat completion request.
type Request struct {
	System    string
	Prompt    string
	Tier      ModelTier
	MaxTokens int
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Response is the result of a completion.
type Response struct {
	Text             string
	Model            string
	Truncated        bool
	PromptTokens     int
	CompletionTokens int
}

// Client is an abstraction over LLM providers
type Client interface {
	// Complete runs one chat completion
	Complete(ctx context.Context, req Request) (*Response, error)
	// ContextLimit returns the largest output token budget the model accepts
	ContextLimit(tier ModelTier) int
	// Name returns the provider name
	Name() string
	// Close releases any resources held by the client
	Close() error
}

// Error is returned when a provider call fails.
type Error struct {
	Provider   string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewClient creates the client for provider, or the configured default provider when
// provider is empty. A missing API key yields a *config.MissingKeyError.
func NewClient(ctx context.Context, cfg *config.Config, provider string) (Client, error) {
	if provider == "" {
		provider = cfg.LLM.Provider
	}
	if err := cfg.RequireLLM(provider); err != nil {
		return nil, err
	}

	switch Provider(provider) {
	case ProviderGemini:
		return NewGeminiClient(ctx, FromModelSet(ProviderGemini, cfg.LLM.Gemini), cfg.Keys.Gemini, cfg.LLM.GeminiTimeout)
	case ProviderOpenAI:
		return NewOpenAIClient(FromModelSet(ProviderOpenAI, cfg.LLM.OpenAI), cfg.Keys.OpenAI, cfg.LLM.OpenAIBaseURL)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", provider)
	}
}
