package config

import (
	"fmt"
	"time"
)

// SupabaseAudience is the audience Supabase sets on tokens of signed-in users.
const SupabaseAudience = "authenticated"

// JWTConfig holds configuration for validating Supabase-issued access tokens.
type JWTConfig struct {
	Secret   string
	Audience string
	Leeway   time.Duration
}

// NewJWTConfig creates the token validation config from the loaded configuration.
// The Supabase JWT secret is required.
func NewJWTConfig(cfg *Config) (*JWTConfig, error) {
	if err := Require("supabase auth", "SUPABASE_JWT_SECRET", cfg.Supabase.JWTSecret); err != nil {
		return nil, err
	}

	config := &JWTConfig{
		Secret:   cfg.Supabase.JWTSecret,
		Audience: SupabaseAudience,
		Leeway:   30 * time.Second,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("SUPABASE_JWT_SECRET must be at least 16 characters")
	}
	if c.Leeway < 0 {
		return fmt.Errorf("JWT leeway must be non-negative, got: %s", c.Leeway)
	}
	return nil
}
