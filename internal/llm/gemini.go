package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiTimeout bounds a single Gemini call.
const DefaultGeminiTimeout = 60 * time.Second

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client  *genai.Client
	config  *Config
	timeout time.Duration
}

// NewGeminiClient creates a new Gemini client. Every call is aborted after timeout.
func NewGeminiClient(ctx context.Context, cfg *Config, apiKey string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg == nil {
		cfg = DefaultGeminiConfig()
	}
	if timeout <= 0 {
		timeout = DefaultGeminiTimeout
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		config:  cfg,
		timeout: timeout,
	}, nil
}

// Complete runs one generation under the client-side abort timer.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return nil, &Error{Provider: c.Name(), Message: fmt.Sprintf("no model configured for tier %s", req.Tier)}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSON {
		model.SetTemperature(0.1)
		model.ResponseMIMEType = "application/json"
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := model.GenerateContent(callCtx, genai.Text(req.Prompt))
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, &Error{Provider: c.Name(), Message: fmt.Sprintf("request timed out after %s", c.timeout), Cause: callCtx.Err()}
		}
		return nil, &Error{Provider: c.Name(), Message: "failed to generate content", Cause: err}
	}

	out, err := responseFromGemini(resp)
	if err != nil {
		return nil, &Error{Provider: c.Name(), Message: err.Error()}
	}
	out.Model = modelName
	if req.JSON {
		out.Text = CleanJSONBlock(out.Text)
	}
	return out, nil
}

// ContextLimit returns the configured output token ceiling.
func (c *GeminiClient) ContextLimit(_ ModelTier) int {
	return c.config.GetContextLimit()
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return string(ProviderGemini)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// responseFromGemini extracts text, truncation and usage from a Gemini API response
func responseFromGemini(resp *genai.GenerateContentResponse) (*Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("no text parts in response")
	}

	out := &Response{
		Text:      strings.Join(parts, ""),
		Truncated: candidate.FinishReason == genai.FinishReasonMaxTokens,
	}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
