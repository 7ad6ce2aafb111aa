// Package recipes finds recipes in the Airtable recipe table and drafts recipe articles
// from them.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/content-studio/internal/airtable"
	"github.com/jonathan/content-studio/internal/generation"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/prompts"
	"github.com/jonathan/content-studio/internal/types"
	"github.com/jonathan/content-studio/internal/usage"
)

const (
	// DefaultMaxResults is used when a find request sets no limit.
	DefaultMaxResults = 10
	// DefaultMaxTokens bounds one recipe article.
	DefaultMaxTokens = 3000
	// DefaultServings is used when a generate request sets none.
	DefaultServings = 4
	// UsageKey is the usage store key for recipe articles.
	UsageKey = "recipe"

	lookupConcurrency = 4
)

// Store reads recipes.
type Store interface {
	SearchRecipes(ctx context.Context, query, cuisine string, maxRecords int) ([]types.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*types.Recipe, error)
}

// NotFoundError reports recipe ids the store does not know.
type NotFoundError struct {
	IDs []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("recipes not found: %s", strings.Join(e.IDs, ", "))
}

// Service serves the recipe routes.
type Service struct {
	Store     Store
	Client    llm.Client
	MaxTokens int
	// Usage is optional.
	Usage  usage.Store
	Logger zerolog.Logger
}

// NewService creates a Service.
func NewService(store Store, client llm.Client, logger zerolog.Logger) *Service {
	return &Service{Store: store, Client: client, MaxTokens: DefaultMaxTokens, Logger: logger}
}

// Find searches the recipe table.
func (s *Service) Find(ctx context.Context, req *types.FindRecipesRequest) (*types.FindRecipesResponse, error) {
	limit := req.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	found, err := s.Store.SearchRecipes(ctx, req.Query, req.Cuisine, limit)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug().Str("query", req.Query).Int("recipes", len(found)).Msg("recipe search complete")
	return &types.FindRecipesResponse{Recipes: found, Count: len(found)}, nil
}

// Generate drafts a recipe article. Recipes named by id are looked up first and precede
// any recipes sent inline.
func (s *Service) Generate(ctx context.Context, req *types.GenerateRecipeRequest) (*types.GenerateRecipeResponse, error) {
	looked, err := s.lookup(ctx, req.RecipeIDs)
	if err != nil {
		return nil, err
	}
	refs := append(looked, req.Recipes...)

	system, err := prompts.Get(prompts.Recipes, "system")
	if err != nil {
		return nil, err
	}
	prompt, err := prompts.Render(prompts.Recipes, "recipe", promptData(req, refs))
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Complete(ctx, llm.Request{
		System:    system,
		Prompt:    prompt,
		Tier:      llm.TierStandard,
		MaxTokens: s.maxTokens(ctx),
	})
	if err != nil {
		return nil, err
	}
	s.recordUsage(ctx, resp)

	content := generation.RenderHTML(resp.Text)
	if content == "" {
		return nil, &llm.Error{Provider: s.Client.Name(), Message: "empty recipe response"}
	}
	if refs == nil {
		refs = []types.Recipe{}
	}
	return &types.GenerateRecipeResponse{Content: content, Recipes: refs}, nil
}

// lookup fetches recipes by id, keeping request order. Unknown ids are collected into
// one *NotFoundError.
func (s *Service) lookup(ctx context.Context, ids []string) ([]types.Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found := make([]*types.Recipe, len(ids))
	missing := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			recipe, err := s.Store.GetRecipe(gctx, id)
			var apiErr *airtable.Error
			if errors.As(err, &apiErr) && apiErr.NotFound() {
				missing[i] = true
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = recipe
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var notFound []string
	out := make([]types.Recipe, 0, len(ids))
	for i, id := range ids {
		if missing[i] || found[i] == nil {
			notFound = append(notFound, id)
			continue
		}
		out = append(out, *found[i])
	}
	if len(notFound) > 0 {
		return nil, &NotFoundError{IDs: notFound}
	}
	return out, nil
}

func (s *Service) maxTokens(ctx context.Context) int {
	budget := s.MaxTokens
	if budget <= 0 {
		budget = DefaultMaxTokens
	}
	if s.Usage != nil {
		if estimate, ok := s.Usage.Estimate(ctx, UsageKey); ok {
			budget = max(budget, estimate*5/4)
		}
	}
	return min(budget, s.Client.ContextLimit(llm.TierStandard))
}

func (s *Service) recordUsage(ctx context.Context, resp *llm.Response) {
	if s.Usage == nil {
		return
	}
	tokens := resp.CompletionTokens
	if tokens == 0 {
		tokens = llm.EstimateTokens(resp.Text)
	}
	s.Usage.Record(ctx, UsageKey, tokens)
}

func promptData(req *types.GenerateRecipeRequest, refs []types.Recipe) map[string]string {
	servings := req.Servings
	if servings <= 0 {
		servings = DefaultServings
	}
	style := strings.TrimSpace(req.Style)
	if style == "" {
		style = "home cooking"
	}
	dietary := "none"
	if len(req.Dietary) > 0 {
		dietary = strings.Join(req.Dietary, ", ")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "a recipe based on the reference recipes"
	}
	reference := FormatRecipes(refs)
	if reference == "" {
		reference = "(none, write an original recipe)"
	}
	return map[string]string{
		"Style":       style,
		"Servings":    strconv.Itoa(servings),
		"Dietary":     dietary,
		"Description": description,
		"Recipes":     reference,
	}
}

// FormatRecipes renders reference recipes for the prompt.
func FormatRecipes(refs []types.Recipe) string {
	var sb strings.Builder
	for i, r := range refs {
		fmt.Fprintf(&sb, "%d. %s", i+1, r.Name)
		if r.Cuisine != "" {
			fmt.Fprintf(&sb, " (%s)", r.Cuisine)
		}
		sb.WriteString("\n")
		if len(r.Ingredients) > 0 {
			fmt.Fprintf(&sb, "   Ingredients: %s\n", strings.Join(r.Ingredients, "; "))
		}
		if r.PrepMinutes > 0 {
			fmt.Fprintf(&sb, "   Prep: %d minutes\n", r.PrepMinutes)
		}
		if r.Instructions != "" {
			fmt.Fprintf(&sb, "   Method: %s\n", strings.Join(strings.Fields(r.Instructions), " "))
		}
	}
	return strings.TrimSpace(sb.String())
}
