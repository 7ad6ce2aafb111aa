// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration. Secrets come from the environment;
// tuning values may also be set in an optional YAML file.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Keys       KeysConfig       `mapstructure:"keys"`
	Airtable   AirtableConfig   `mapstructure:"airtable"`
	Supabase   SupabaseConfig   `mapstructure:"supabase"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Headlines  HeadlinesConfig  `mapstructure:"headlines"`
	Generation GenerationConfig `mapstructure:"generation"`
	LLM        LLMConfig        `mapstructure:"llm"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// KeysConfig holds upstream API keys.
type KeysConfig struct {
	OpenAI  string `mapstructure:"openai"`
	Gemini  string `mapstructure:"gemini"`
	NewsAPI string `mapstructure:"newsapi"`
	SerpAPI string `mapstructure:"serpapi"`
}

// AirtableConfig locates the recipe table.
type AirtableConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseID  string `mapstructure:"base_id"`
	Table   string `mapstructure:"table"`
	BaseURL string `mapstructure:"base_url"`
}

// SupabaseConfig holds the Supabase Postgres URL and the JWT secret used to verify user tokens.
type SupabaseConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	JWTSecret   string `mapstructure:"jwt_secret"`
}

// RedisConfig enables the shared usage-estimate cache when URL is set.
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// LogConfig selects the log level and output format ("json" or "console").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HeadlinesConfig tunes aggregation, ranking and upstream search.
type HeadlinesConfig struct {
	DuplicateThreshold    float64 `mapstructure:"duplicate_threshold"`
	MaxTokens             int     `mapstructure:"max_tokens"`
	RecencyWeight         float64 `mapstructure:"recency_weight"`
	SourceDiversityWeight float64 `mapstructure:"source_diversity_weight"`
	TopicCoverageWeight   float64 `mapstructure:"topic_coverage_weight"`
	RecencyWindowHours    float64 `mapstructure:"recency_window_hours"`
	PageSize              int     `mapstructure:"page_size"`
	DefaultLimit          int     `mapstructure:"default_limit"`
	Concurrency           int     `mapstructure:"concurrency"`
	RSSEnabled            bool    `mapstructure:"rss_enabled"`
	SummaryClusters       int     `mapstructure:"summary_clusters"`
}

// GenerationConfig tunes the article generation loop.
type GenerationConfig struct {
	MaxTokens        int            `mapstructure:"max_tokens"`
	MinLinks         int            `mapstructure:"min_links"`
	MaxLinksPerBlock int            `mapstructure:"max_links_per_block"`
	MinWords         map[string]int `mapstructure:"min_words"`
	SourceLimit      int            `mapstructure:"source_limit"`
	FetchSourceText  bool           `mapstructure:"fetch_source_text"`
	BrowserFallback  bool           `mapstructure:"browser_fallback"`
}

// RateLimitConfig tunes the per-client token buckets of the HTTP server. Allow and Deny
// list client IPs that bypass or are refused by the limiter.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DefaultLimit    int           `mapstructure:"default_limit"`
	DefaultWindow   time.Duration `mapstructure:"default_window"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Allow           []string      `mapstructure:"allow"`
	Deny            []string      `mapstructure:"deny"`
}

// ModelSet names the model used for each tier of one provider.
type ModelSet struct {
	Lite         string `mapstructure:"lite"`
	Standard     string `mapstructure:"standard"`
	Advanced     string `mapstructure:"advanced"`
	ContextLimit int    `mapstructure:"context_limit"`
}

// LLMConfig selects the default provider and its models.
type LLMConfig struct {
	Provider      string        `mapstructure:"provider"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	OpenAI        ModelSet      `mapstructure:"openai"`
	Gemini        ModelSet      `mapstructure:"gemini"`
	GeminiTimeout time.Duration `mapstructure:"gemini_timeout"`
}

// envBindings maps config keys to environment variables. The first variable set wins.
var envBindings = map[string][]string{
	"keys.openai":           {"OPENAI_API_KEY"},
	"keys.gemini":           {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"keys.newsapi":          {"NEWSAPI_API_KEY", "NEWS_API_KEY"},
	"keys.serpapi":          {"SERPAPI_KEY", "SERPAPI_API_KEY"},
	"airtable.api_key":      {"AIRTABLE_API_KEY"},
	"airtable.base_id":      {"AIRTABLE_BASE_ID"},
	"airtable.table":        {"AIRTABLE_TABLE_NAME"},
	"supabase.database_url": {"SUPABASE_DB_URL", "DATABASE_URL"},
	"supabase.jwt_secret":   {"SUPABASE_JWT_SECRET"},
	"redis.url":             {"REDIS_URL"},
	"server.port":           {"PORT"},
	"log.level":             {"LOG_LEVEL"},
	"log.format":            {"LOG_FORMAT"},
	"llm.provider":          {"LLM_PROVIDER"},
	"llm.openai_base_url":   {"OPENAI_BASE_URL"},
	"rate_limit.enabled":    {"RATE_LIMIT_ENABLED"},
	"rate_limit.allow":      {"RATE_LIMIT_WHITELIST"},
	"rate_limit.deny":       {"RATE_LIMIT_BLACKLIST"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("airtable.table", "Recipes")
	v.SetDefault("airtable.base_url", "https://api.airtable.com/v0")

	v.SetDefault("redis.ttl", 7*24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("headlines.duplicate_threshold", 0.7)
	v.SetDefault("headlines.max_tokens", 64)
	v.SetDefault("headlines.recency_weight", 0.5)
	v.SetDefault("headlines.source_diversity_weight", 0.25)
	v.SetDefault("headlines.topic_coverage_weight", 0.25)
	v.SetDefault("headlines.recency_window_hours", 72.0)
	v.SetDefault("headlines.page_size", 20)
	v.SetDefault("headlines.default_limit", 20)
	v.SetDefault("headlines.concurrency", 4)
	v.SetDefault("headlines.rss_enabled", true)
	v.SetDefault("headlines.summary_clusters", 5)

	v.SetDefault("generation.max_tokens", 4096)
	v.SetDefault("generation.min_links", 3)
	v.SetDefault("generation.max_links_per_block", 3)
	v.SetDefault("generation.min_words", map[string]int{
		"short":  300,
		"medium": 600,
		"long":   1200,
	})
	v.SetDefault("generation.source_limit", 5)
	v.SetDefault("generation.fetch_source_text", true)
	v.SetDefault("generation.browser_fallback", false)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_limit", 1000)
	v.SetDefault("rate_limit.default_window", time.Minute)
	v.SetDefault("rate_limit.cleanup_interval", 5*time.Minute)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.openai.lite", "gpt-4o-mini")
	v.SetDefault("llm.openai.standard", "gpt-4o-mini")
	v.SetDefault("llm.openai.advanced", "gpt-4o")
	v.SetDefault("llm.openai.context_limit", 16384)
	v.SetDefault("llm.gemini.lite", "gemini-2.5-flash-lite")
	v.SetDefault("llm.gemini.standard", "gemini-2.5-flash")
	v.SetDefault("llm.gemini.advanced", "gemini-2.5-pro")
	v.SetDefault("llm.gemini.context_limit", 65536)
	v.SetDefault("llm.gemini_timeout", 60*time.Second)
}

// Load builds the configuration from defaults, the optional YAML file at path and the
// environment. The .env file is expected to be loaded by the caller beforehand.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CONTENT_STUDIO")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that tuning values are in range. Missing API keys are not an error here;
// features that need them report a MissingKeyError when used.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535, got %d", c.Server.Port)
	}

	h := c.Headlines
	if h.DuplicateThreshold <= 0 || h.DuplicateThreshold > 1 {
		return fmt.Errorf("config error: 'headlines.duplicate_threshold' must be in (0,1], got %v", h.DuplicateThreshold)
	}
	if h.MaxTokens < 1 {
		return fmt.Errorf("config error: 'headlines.max_tokens' must be at least 1")
	}
	if h.RecencyWeight < 0 || h.SourceDiversityWeight < 0 || h.TopicCoverageWeight < 0 {
		return fmt.Errorf("config error: ranking weights must be non-negative")
	}
	if h.RecencyWeight+h.SourceDiversityWeight+h.TopicCoverageWeight <= 0 {
		return fmt.Errorf("config error: ranking weights must sum to more than zero")
	}
	if h.RecencyWindowHours <= 0 {
		return fmt.Errorf("config error: 'headlines.recency_window_hours' must be positive")
	}
	if h.Concurrency < 1 {
		return fmt.Errorf("config error: 'headlines.concurrency' must be at least 1")
	}

	g := c.Generation
	if g.MaxTokens < 1 {
		return fmt.Errorf("config error: 'generation.max_tokens' must be at least 1")
	}
	if g.MinLinks < 0 {
		return fmt.Errorf("config error: 'generation.min_links' must be non-negative")
	}
	if g.MaxLinksPerBlock < 1 {
		return fmt.Errorf("config error: 'generation.max_links_per_block' must be at least 1")
	}

	if c.RateLimit.Enabled && (c.RateLimit.DefaultLimit < 1 || c.RateLimit.DefaultWindow <= 0) {
		return fmt.Errorf("config error: 'rate_limit' needs a positive default_limit and default_window")
	}

	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("config error: 'llm.provider' must be openai or gemini, got %q", c.LLM.Provider)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config error: 'log.format' must be json or console, got %q", c.Log.Format)
	}

	return nil
}

// MinWordsFor returns the minimum word count for an article length, falling back to 0.
func (g GenerationConfig) MinWordsFor(length string) int {
	return g.MinWords[length]
}
