package config

import "fmt"

// MissingKeyError reports that a feature needs an environment variable that is not set.
type MissingKeyError struct {
	Feature string
	EnvVar  string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s is not configured: %s is not set", e.Feature, e.EnvVar)
}

// Require returns a MissingKeyError when value is empty.
func Require(feature, envVar, value string) error {
	if value == "" {
		return &MissingKeyError{Feature: feature, EnvVar: envVar}
	}
	return nil
}

// RequireOpenAI checks the OpenAI key.
func (c *Config) RequireOpenAI() error {
	return Require("openai", "OPENAI_API_KEY", c.Keys.OpenAI)
}

// RequireGemini checks the Gemini key.
func (c *Config) RequireGemini() error {
	return Require("gemini", "GEMINI_API_KEY", c.Keys.Gemini)
}

// RequireLLM checks the key of the given provider, or the default provider when empty.
func (c *Config) RequireLLM(provider string) error {
	if provider == "" {
		provider = c.LLM.Provider
	}
	if provider == "gemini" {
		return c.RequireGemini()
	}
	return c.RequireOpenAI()
}

// RequireAirtable checks the Airtable key, base and table.
func (c *Config) RequireAirtable() error {
	if err := Require("airtable", "AIRTABLE_API_KEY", c.Airtable.APIKey); err != nil {
		return err
	}
	if err := Require("airtable", "AIRTABLE_BASE_ID", c.Airtable.BaseID); err != nil {
		return err
	}
	return Require("airtable", "AIRTABLE_TABLE_NAME", c.Airtable.Table)
}

// RequireSupabase checks the database URL and JWT secret.
func (c *Config) RequireSupabase() error {
	if err := Require("supabase", "SUPABASE_DB_URL", c.Supabase.DatabaseURL); err != nil {
		return err
	}
	return Require("supabase", "SUPABASE_JWT_SECRET", c.Supabase.JWTSecret)
}

// RequireNewsSource checks that at least one headline provider can run.
func (c *Config) RequireNewsSource() error {
	if c.Keys.NewsAPI != "" || c.Keys.SerpAPI != "" || c.Headlines.RSSEnabled {
		return nil
	}
	return &MissingKeyError{Feature: "headlines", EnvVar: "NEWSAPI_API_KEY or SERPAPI_KEY"}
}
