package ratelimit

import (
	"strings"
	"time"

	"github.com/jonathan/content-studio/internal/config"
)

// EndpointConfig is the limit for one route.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends with "/"
	Method string        // HTTP method
	Limit  int           // requests per window; 0 means unlimited
	Window time.Duration // refill window
	Burst  int           // bucket capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Allowlist       map[string]bool
	Denylist        map[string]bool
	Endpoints       []EndpointConfig
}

// DefaultConfig is used when no configuration is given.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Allowlist:       map[string]bool{},
		Denylist:        map[string]bool{},
		Endpoints:       DefaultEndpointConfigs(),
	}
}

// FromConfig builds the limiter configuration from the application configuration.
func FromConfig(cfg config.RateLimitConfig) *Config {
	return &Config{
		Enabled:         cfg.Enabled,
		DefaultLimit:    cfg.DefaultLimit,
		DefaultWindow:   cfg.DefaultWindow,
		CleanupInterval: cfg.CleanupInterval,
		Allowlist:       ipSet(cfg.Allow),
		Denylist:        ipSet(cfg.Deny),
		Endpoints:       DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits. LLM-backed routes are the strictest.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// LLM drafting
		{Path: "/api/generate", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Path: "/api/generate-recipe", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// Upstream search and short LLM calls
		{Path: "/api/headlines", Method: "POST", Limit: 120, Window: time.Hour, Burst: 10},
		{Path: "/api/headlines/review", Method: "POST", Limit: 120, Window: time.Hour, Burst: 10},
		{Path: "/api/findRecipes", Method: "POST", Limit: 60, Window: time.Minute, Burst: 20},

		// Writes
		{Path: "/api/travel-presets", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/profiles", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		{Path: "/health", Method: "GET", Limit: 0},
	}
}

func ipSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, item := range list {
		for _, ip := range strings.Split(item, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				set[ip] = true
			}
		}
	}
	return set
}
