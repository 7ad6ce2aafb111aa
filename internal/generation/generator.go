package generation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/headlines"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/prompts"
	"github.com/jonathan/content-studio/internal/types"
	"github.com/jonathan/content-studio/internal/usage"
)

const (
	defaultMinWords       = 600
	defaultListItems      = 10
	defaultSourceLimit    = headlines.DefaultSourceLimit
	excerptConcurrency    = 4
	maxSearchKeywords     = 3
	defaultAudience       = "general readers"
	defaultTone           = "informative"
	noSourcesPlaceholder  = "(no sources provided; do not invent links)"
	noKeywordsPlaceholder = "none"
)

// Searcher finds candidate source articles for a topic.
type Searcher interface {
	Search(ctx context.Context, req *types.HeadlinesRequest) ([]types.RawArticle, error)
}

// ExcerptFetcher returns a short plain-text excerpt of a page.
type ExcerptFetcher interface {
	Excerpt(ctx context.Context, url string) (string, error)
}

// Generator drafts and verifies articles.
type Generator struct {
	Client llm.Client
	Config config.GenerationConfig
	// Searcher, Excerpts and Usage are optional.
	Searcher Searcher
	Excerpts ExcerptFetcher
	Usage    usage.Store
	Logger   zerolog.Logger
}

// NewGenerator creates a Generator. Optional collaborators are set on the returned value.
func NewGenerator(client llm.Client, cfg config.GenerationConfig, logger zerolog.Logger) *Generator {
	return &Generator{
		Client: client,
		Config: cfg,
		Logger: logger,
	}
}

// Result is a verified article.
type Result struct {
	HTML     string
	Sources  []types.Source
	Meta     types.GenerationMeta
	Warnings []string
}

// Response converts r to the API response shape.
func (r *Result) Response() *types.GenerateResponse {
	meta := r.Meta
	return &types.GenerateResponse{
		Content:  r.HTML,
		Sources:  r.Sources,
		Meta:     &meta,
		Warnings: r.Warnings,
	}
}

// requirements are the checks a draft must pass.
type requirements struct {
	sources     []types.Source
	minLinks    int
	maxPerBlock int
	minWords    int
}

// Generate drafts an article for req and verifies it. A draft that still fails a check
// after that check's retry yields a *VerificationError.
func (g *Generator) Generate(ctx context.Context, req *types.GenerateRequest) (*Result, error) {
	articleType := req.EffectiveArticleType()
	length := req.EffectiveLength()
	logger := g.Logger.With().Str("article_type", articleType).Str("length", length).Logger()

	sources, warnings := g.resolveSources(ctx, req)
	excerpts := g.fetchExcerpts(ctx, sources)

	reqs := requirements{
		sources:     sources,
		minLinks:    min(g.Config.MinLinks, len(sources)),
		maxPerBlock: g.Config.MaxLinksPerBlock,
		minWords:    g.minWords(req),
	}

	system, err := prompts.Get(prompts.Generation, "system")
	if err != nil {
		return nil, err
	}
	base, err := buildPrompt(req, sources, excerpts, reqs)
	if err != nil {
		return nil, err
	}

	tier := llm.TierStandard
	if length == types.LengthLong {
		tier = llm.TierAdvanced
	}
	limit := g.Client.ContextLimit(tier)
	usageKey := articleType + ":" + length
	estimate, known := g.estimate(ctx, usageKey)
	maxTokens := InitialMaxTokens(g.Config.MaxTokens, estimate, known, limit)

	var (
		state        = StateDraft
		retried      = make(map[State]bool)
		instructions []string
		retries      []string
		draft        *Draft
		last         *llm.Response
		attempts     int
	)

	for !state.Terminal() {
		if state == StateDraft {
			prompt := base
			if draft != nil {
				prompt = composeRetryPrompt(base, draft.HTML, instructions)
			}

			logger.Info().Int("attempt", attempts+1).Int("max_tokens", maxTokens).Msg("requesting draft")
			resp, err := g.Client.Complete(ctx, llm.Request{
				System:    system,
				Prompt:    prompt,
				Tier:      tier,
				MaxTokens: maxTokens,
			})
			if err != nil {
				return nil, err
			}
			attempts++
			last = resp

			draft, err = ParseDraft(RenderHTML(resp.Text))
			if err != nil {
				return nil, err
			}
			if resp.Truncated {
				logger.Warn().Int("max_tokens", maxTokens).Msg("draft truncated")
			}
			maxTokens = NextMaxTokens(maxTokens, resp.Truncated, limit)
			state = Transition(state, true, false).Next
			continue
		}

		result := runCheck(state, draft, reqs)
		step := Transition(state, result.Passed, retried[state])
		switch {
		case step.Retry:
			retried[state] = true
			instruction, err := retryInstruction(state, result, reqs)
			if err != nil {
				return nil, err
			}
			instructions = append(instructions, instruction)
			retries = append(retries, string(state.Condition()))
			logger.Info().Str("check", state.String()).Int("actual", result.Actual).Int("required", result.Required).Msg("check failed, retrying")
		case step.Next == StateFailed:
			verr := verificationError(state, result, draft, reqs, attempts)
			logger.Warn().Err(verr).Msg("article failed verification")
			return nil, verr
		}
		state = step.Next
	}

	if last.Truncated {
		warnings = append(warnings, "the final draft reached the output token limit")
	}
	g.record(ctx, usageKey, last)

	logger.Info().
		Int("attempts", attempts).
		Int("words", draft.Words).
		Int("links", draft.UniqueLinks()).
		Msg("article generated")

	return &Result{
		HTML:    draft.HTML,
		Sources: sources,
		Meta: types.GenerationMeta{
			Attempts:  attempts,
			Model:     last.Model,
			Provider:  g.Client.Name(),
			Retries:   retries,
			WordCount: draft.Words,
			LinkCount: draft.UniqueLinks(),
		},
		Warnings: warnings,
	}, nil
}

func runCheck(state State, d *Draft, reqs requirements) CheckResult {
	switch state {
	case StateCheckCitations:
		return CheckCitations(d, reqs.sources)
	case StateCheckLinkCount:
		return CheckLinkCount(d, reqs.minLinks)
	case StateCheckLinkClustering:
		return CheckLinkClustering(d, reqs.maxPerBlock)
	case StateCheckWordCount:
		return CheckWordCount(d, reqs.minWords)
	default:
		return CheckResult{Passed: true}
	}
}

// verificationError describes the failed check and lists every condition the final draft
// misses.
func verificationError(state State, result CheckResult, d *Draft, reqs requirements, attempts int) *VerificationError {
	verr := &VerificationError{
		Condition: state.Condition(),
		Missing:   result.Missing,
		Required:  result.Required,
		Actual:    result.Actual,
		Target:    result.Target,
		Detail:    result.Detail,
		Attempts:  attempts,
	}
	for s := StateCheckCitations; s <= StateCheckWordCount; s++ {
		if !runCheck(s, d, reqs).Passed {
			verr.Unmet = append(verr.Unmet, s.Condition())
		}
	}
	if verr.Condition != ConditionCitations {
		if citations := CheckCitations(d, reqs.sources); !citations.Passed {
			verr.Missing = citations.Missing
		}
	}
	return verr
}

func retryInstruction(state State, result CheckResult, reqs requirements) (string, error) {
	switch state {
	case StateCheckCitations:
		refs := make([]string, len(result.Missing))
		for i, s := range result.Missing {
			refs[i] = sourceRef(s)
		}
		return prompts.Render(prompts.Generation, "retry-citations", map[string]string{
			"Missing": strings.Join(refs, "; "),
		})
	case StateCheckLinkCount:
		return prompts.Render(prompts.Generation, "retry-link-count", map[string]string{
			"Actual":   strconv.Itoa(result.Actual),
			"Required": strconv.Itoa(result.Required),
		})
	case StateCheckLinkClustering:
		maxPerBlock := reqs.maxPerBlock
		if maxPerBlock <= 0 {
			maxPerBlock = 1
		}
		return prompts.Render(prompts.Generation, "retry-link-clustering", map[string]string{
			"Detail":      result.Detail,
			"MaxPerBlock": strconv.Itoa(maxPerBlock),
		})
	case StateCheckWordCount:
		return prompts.Render(prompts.Generation, "retry-word-count", map[string]string{
			"Actual":   strconv.Itoa(result.Actual),
			"Required": strconv.Itoa(result.Target),
		})
	default:
		return "", fmt.Errorf("no retry instruction for state %s", state)
	}
}

func composeRetryPrompt(base, previous string, instructions []string) string {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\n")
	sb.WriteString(prompts.Format(prompts.MustGet(prompts.Generation, "previous-draft"), map[string]string{"Draft": previous}))
	for _, instruction := range instructions {
		sb.WriteString("\n\n")
		sb.WriteString(instruction)
	}
	return sb.String()
}

func buildPrompt(req *types.GenerateRequest, sources []types.Source, excerpts []string, reqs requirements) (string, error) {
	articleType := req.EffectiveArticleType()

	listItems := req.ListItems
	if listItems <= 0 {
		listItems = defaultListItems
	}
	guidance, err := prompts.Render(prompts.Generation, "type-"+articleType, map[string]string{
		"ListItems": strconv.Itoa(listItems),
	})
	if err != nil {
		return "", err
	}

	entries := make([]string, 0, len(sources))
	for i, src := range sources {
		excerpt := ""
		if i < len(excerpts) && excerpts[i] != "" {
			excerpt = "\n   Excerpt: " + excerpts[i]
		} else if src.Description != "" {
			excerpt = "\n   Summary: " + src.Description
		}
		publisher := src.Publisher
		if publisher == "" {
			publisher = headlines.HostOf(src.URL)
		}
		entry, err := prompts.Render(prompts.Generation, "source-entry", map[string]string{
			"Number":    strconv.Itoa(i + 1),
			"Title":     src.Title,
			"Publisher": publisher,
			"URL":       src.URL,
			"Excerpt":   excerpt,
		})
		if err != nil {
			return "", err
		}
		entries = append(entries, entry)
	}
	sourceList := noSourcesPlaceholder
	if len(entries) > 0 {
		sourceList = strings.Join(entries, "\n")
	}

	keywords := noKeywordsPlaceholder
	if len(req.Keywords) > 0 {
		keywords = strings.Join(req.Keywords, ", ")
	}

	instructions := strings.TrimSpace(req.Instructions)
	if req.IncludeImages {
		images, err := prompts.Get(prompts.Generation, "images")
		if err != nil {
			return "", err
		}
		instructions = strings.TrimSpace(instructions + "\n" + images)
	}
	if instructions == "" {
		instructions = "none"
	}

	return prompts.Render(prompts.Generation, "article", map[string]string{
		"Topic":        req.Topic,
		"ArticleType":  articleType,
		"Audience":     valueOr(req.Audience, defaultAudience),
		"Tone":         valueOr(req.Tone, defaultTone),
		"MinWords":     strconv.Itoa(reqs.minWords),
		"TypeGuidance": guidance,
		"MinLinks":     strconv.Itoa(reqs.minLinks),
		"Sources":      sourceList,
		"Keywords":     keywords,
		"Instructions": instructions,
	})
}

// resolveSources returns the request's sources without URL-equivalent repeats, topped up
// from the searcher when the request asks for it.
func (g *Generator) resolveSources(ctx context.Context, req *types.GenerateRequest) ([]types.Source, []string) {
	sources := appendDistinct(nil, req.Sources, len(req.Sources))
	if !req.FetchSources {
		return sources, nil
	}

	limit := g.Config.SourceLimit
	if limit <= 0 {
		limit = defaultSourceLimit
	}
	if len(sources) >= limit {
		return sources, nil
	}
	if g.Searcher == nil {
		return sources, []string{"source search unavailable: no news provider is configured"}
	}

	keywords := req.Keywords
	if len(keywords) > maxSearchKeywords {
		keywords = keywords[:maxSearchKeywords]
	}
	articles, err := g.Searcher.Search(ctx, &types.HeadlinesRequest{
		Query:     req.Topic,
		Keywords:  keywords,
		Freshness: req.Freshness,
	})
	if err != nil {
		g.Logger.Warn().Err(err).Msg("source search failed")
		return sources, []string{"source search failed: " + err.Error()}
	}

	found := headlines.SelectSources(articles, limit)
	return appendDistinct(sources, found, limit), nil
}

// appendDistinct appends candidates whose URL is not equivalent to one already present,
// stopping at limit.
func appendDistinct(sources, candidates []types.Source, limit int) []types.Source {
	for _, c := range candidates {
		if len(sources) >= limit {
			break
		}
		duplicate := false
		for _, s := range sources {
			if headlines.URLsEquivalent(s.URL, c.URL) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			sources = append(sources, c)
		}
	}
	return sources
}

// fetchExcerpts returns one excerpt per source; failed fetches leave an empty string.
func (g *Generator) fetchExcerpts(ctx context.Context, sources []types.Source) []string {
	excerpts := make([]string, len(sources))
	if !g.Config.FetchSourceText || g.Excerpts == nil || len(sources) == 0 {
		return excerpts
	}

	var eg errgroup.Group
	eg.SetLimit(excerptConcurrency)
	for i, src := range sources {
		eg.Go(func() error {
			text, err := g.Excerpts.Excerpt(ctx, src.URL)
			if err != nil {
				g.Logger.Debug().Err(err).Str("url", src.URL).Msg("source excerpt unavailable")
				return nil
			}
			excerpts[i] = text
			return nil
		})
	}
	_ = eg.Wait()
	return excerpts
}

func (g *Generator) minWords(req *types.GenerateRequest) int {
	if req.WordCount > 0 {
		return req.WordCount
	}
	if n, ok := g.Config.MinWords[req.EffectiveLength()]; ok && n > 0 {
		return n
	}
	return defaultMinWords
}

func (g *Generator) estimate(ctx context.Context, key string) (int, bool) {
	if g.Usage == nil {
		return 0, false
	}
	return g.Usage.Estimate(ctx, key)
}

func (g *Generator) record(ctx context.Context, key string, resp *llm.Response) {
	if g.Usage == nil || resp == nil {
		return
	}
	tokens := resp.CompletionTokens
	if tokens <= 0 {
		tokens = llm.EstimateTokens(resp.Text)
	}
	g.Usage.Record(ctx, key, tokens)
}

func valueOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
