package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jonathan/content-studio/internal/airtable"
	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/db"
	"github.com/jonathan/content-studio/internal/fetch"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/news"
	"github.com/jonathan/content-studio/internal/presets"
	"github.com/jonathan/content-studio/internal/summarize"
	"github.com/jonathan/content-studio/internal/usage"
)

// clientCache creates LLM clients on first use and reuses them.
type clientCache struct {
	cfg     *config.Config
	mu      sync.Mutex
	clients map[string]llm.Client
}

func (c *clientCache) get(ctx context.Context, provider string) (llm.Client, error) {
	if provider == "" {
		provider = c.cfg.LLM.Provider
	}
	if err := c.cfg.RequireLLM(provider); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[provider]; ok {
		return client, nil
	}
	// The client outlives the request that created it.
	client, err := llm.NewClient(context.WithoutCancel(ctx), c.cfg, provider)
	if err != nil {
		return nil, err
	}
	c.clients[provider] = client
	return client, nil
}

func (c *clientCache) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, client := range c.clients {
		_ = client.Close()
		delete(c.clients, name)
	}
}

// NewDeps builds the services from configuration. Features whose keys are missing are
// left nil and recorded in Missing. The returned cleanup releases clients and pools.
func NewDeps(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Deps, func(), error) {
	deps := &Deps{
		Config:  cfg,
		Logger:  logger,
		Missing: map[string]error{},
	}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	clients := &clientCache{cfg: cfg, clients: map[string]llm.Client{}}
	deps.LLM = clients.get
	cleanups = append(cleanups, clients.close)

	var summarizer news.Summarizer
	if cfg.RequireLLM("") == nil {
		client, err := clients.get(ctx, "")
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		summarizer = summarize.New(client, logger)
	}
	headlineService := news.NewService(cfg, news.ProvidersFromConfig(cfg), summarizer, logger)
	deps.Headlines = headlineService
	deps.Searcher = headlineService

	if cfg.Generation.FetchSourceText {
		var renderer fetch.Renderer
		if cfg.Generation.BrowserFallback {
			renderer = &fetch.BrowserRenderer{Timeout: fetch.DefaultBrowserTimeout, Logger: logger}
		}
		deps.Excerpts = fetch.NewExtractor(logger, renderer)
	}

	if cfg.Redis.URL != "" {
		store, err := usage.NewRedisStore(ctx, cfg.Redis.URL, cfg.Redis.TTL, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Usage = store
		cleanups = append(cleanups, func() { _ = store.Close() })
	} else {
		deps.Usage = usage.NewMemoryStore()
	}

	if recipeClient, err := airtable.NewClientFromConfig(cfg); err != nil {
		deps.Missing[FeatureRecipes] = err
	} else {
		deps.Recipes = recipeClient
	}

	if cfg.Supabase.DatabaseURL == "" {
		missing := &config.MissingKeyError{Feature: "profiles", EnvVar: "SUPABASE_DB_URL"}
		deps.Missing[FeatureProfiles] = missing
		deps.Presets = presets.NewService(nil, logger)
	} else {
		database, err := db.Connect(ctx, cfg.Supabase.DatabaseURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanups = append(cleanups, database.Close)
		deps.DB = database
		deps.Profiles = database
		deps.Presets = presets.NewService(database, logger)
	}

	if jwtConfig, err := config.NewJWTConfig(cfg); err != nil {
		deps.Missing[FeatureAuth] = err
		logger.Warn().Err(err).Msg("token validation disabled; profile and preset writes are unavailable")
	} else {
		deps.Auth = NewJWTService(jwtConfig).AsTokenValidator()
	}

	return deps, cleanup, nil
}
