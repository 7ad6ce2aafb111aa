package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client for OpenAI-compatible chat completion endpoints
type OpenAIClient struct {
	client *openai.Client
	config *Config
}

// NewOpenAIClient creates a new OpenAI client. baseURL overrides the API endpoint for
// OpenAI-compatible servers; empty uses the public API.
func NewOpenAIClient(cfg *Config, apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg == nil {
		cfg = DefaultOpenAIConfig()
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Complete runs a chat completion. A "length" finish reason marks the response truncated.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return nil, &Error{Provider: c.Name(), Message: fmt.Sprintf("no model configured for tier %s", req.Tier)}
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       modelName,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: 0.7,
	}
	if req.JSON {
		chatReq.Temperature = 0.2
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, c.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Provider: c.Name(), Message: "no choices in response"}
	}

	choice := resp.Choices[0]
	text := choice.Message.Content
	if req.JSON {
		text = CleanJSONBlock(text)
	}

	model := resp.Model
	if model == "" {
		model = modelName
	}

	return &Response{
		Text:             text,
		Model:            model,
		Truncated:        choice.FinishReason == openai.FinishReasonLength,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (c *OpenAIClient) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Provider: c.Name(), Message: apiErr.Message, StatusCode: apiErr.HTTPStatusCode, Cause: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Provider: c.Name(), Message: "request failed", StatusCode: reqErr.HTTPStatusCode, Cause: err}
	}
	return &Error{Provider: c.Name(), Message: "request failed", Cause: err}
}

// ContextLimit returns the configured output token ceiling.
func (c *OpenAIClient) ContextLimit(_ ModelTier) int {
	return c.config.GetContextLimit()
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return string(ProviderOpenAI)
}

// Close releases resources held by the client
func (c *OpenAIClient) Close() error {
	return nil
}
