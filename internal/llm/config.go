// Package llm provides the chat-completion client abstraction used by generation,
// summarization and review, with OpenAI and Gemini implementations.
package llm

import (
	"github.com/jonathan/content-studio/internal/config"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short structured tasks: reviews, cluster summaries
	TierLite ModelTier = "lite"
	// TierStandard is for article and recipe drafting
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form drafting when the request asks for it
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// DefaultContextLimit is used when a configuration does not name one.
const DefaultContextLimit = 8192

// Config holds the model configuration of one provider
type Config struct {
	Provider     Provider
	Models       map[ModelTier]string
	ContextLimit int
}

// DefaultOpenAIConfig returns the default OpenAI configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Models: map[ModelTier]string{
			TierLite:     "gpt-4o-mini",
			TierStandard: "gpt-4o-mini",
			TierAdvanced: "gpt-4o",
		},
		ContextLimit: 16384,
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		ContextLimit: 65536,
	}
}

// FromModelSet builds a provider configuration from loaded settings. Empty tiers are
// left out so GetModel falls back to another tier.
func FromModelSet(provider Provider, set config.ModelSet) *Config {
	cfg := &Config{
		Provider:     provider,
		Models:       make(map[ModelTier]string),
		ContextLimit: set.ContextLimit,
	}
	if set.Lite != "" {
		cfg.Models[TierLite] = set.Lite
	}
	if set.Standard != "" {
		cfg.Models[TierStandard] = set.Standard
	}
	if set.Advanced != "" {
		cfg.Models[TierAdvanced] = set.Advanced
	}
	return cfg
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// GetContextLimit returns the maximum output token budget for the provider.
func (c *Config) GetContextLimit() int {
	if c.ContextLimit <= 0 {
		return DefaultContextLimit
	}
	return c.ContextLimit
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:     c.Provider,
		Models:       make(map[ModelTier]string),
		ContextLimit: c.ContextLimit,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
