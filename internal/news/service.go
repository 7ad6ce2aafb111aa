package news

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/headlines"
	"github.com/jonathan/content-studio/internal/types"
)

// Summarizer writes an overview for the top ranked clusters, keyed by rank position.
type Summarizer interface {
	Summarize(ctx context.Context, ranked []headlines.Ranked, max int) (map[int]types.HeadlineSummary, error)
}

// Service runs the headline digest: search, dedupe, rank and optionally summarize.
type Service struct {
	Providers       []Provider
	Options         headlines.Options
	Weights         headlines.Weights
	PageSize        int
	DefaultLimit    int
	Concurrency     int
	SummaryClusters int
	// Summarizer is optional; a nil Summarizer turns summaries into a warning.
	Summarizer Summarizer
	Logger     zerolog.Logger
	Now        func() time.Time
}

// ProvidersFromConfig builds the providers whose keys are configured, in the order
// NewsAPI, SerpAPI Google News, SerpAPI web, RSS.
func ProvidersFromConfig(cfg *config.Config) []Provider {
	var providers []Provider
	if cfg.Keys.NewsAPI != "" {
		providers = append(providers, NewNewsAPIClient(cfg.Keys.NewsAPI, "", nil))
	}
	if cfg.Keys.SerpAPI != "" {
		providers = append(providers,
			NewSerpAPIClient(cfg.Keys.SerpAPI, EngineGoogleNews, "", nil),
			NewSerpAPIClient(cfg.Keys.SerpAPI, EngineGoogle, "", nil),
		)
	}
	if cfg.Headlines.RSSEnabled {
		providers = append(providers, NewRSSClient("", nil))
	}
	return providers
}

// NewService creates a Service from configuration.
func NewService(cfg *config.Config, providers []Provider, summarizer Summarizer, logger zerolog.Logger) *Service {
	h := cfg.Headlines
	return &Service{
		Providers: providers,
		Options: headlines.Options{
			DuplicateThreshold: h.DuplicateThreshold,
			MaxTokens:          h.MaxTokens,
		},
		Weights: headlines.Weights{
			Recency:            h.RecencyWeight,
			SourceDiversity:    h.SourceDiversityWeight,
			TopicCoverage:      h.TopicCoverageWeight,
			RecencyWindowHours: h.RecencyWindowHours,
		},
		PageSize:        h.PageSize,
		DefaultLimit:    h.DefaultLimit,
		Concurrency:     h.Concurrency,
		SummaryClusters: h.SummaryClusters,
		Summarizer:      summarizer,
		Logger:          logger,
		Now:             time.Now,
	}
}

// Headlines builds the ranked digest for req. Partial upstream failures are reported in
// the response; an error is returned only when nothing could be searched.
func (s *Service) Headlines(ctx context.Context, req *types.HeadlinesRequest) (*types.HeadlinesResponse, error) {
	now := s.now()
	fetched, queries, err := s.fetch(ctx, req, now)
	if err != nil {
		return nil, err
	}

	from, to := queries[0].From, queries[0].To
	articles := FilterWindow(fetched.Articles, from, to, now)

	agg := headlines.NewAggregator(s.Options)
	agg.AddRaw(articles)
	candidates := agg.Candidates()
	ranked := headlines.Rank(candidates, now, s.Weights)

	limit := req.Limit
	if limit <= 0 {
		limit = s.DefaultLimit
	}
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	includeRanking := req.RankingEnabled()
	resp := &types.HeadlinesResponse{
		Headlines:         make([]types.RankedHeadline, len(ranked)),
		TotalResults:      len(candidates),
		QueriesAttempted:  fetched.Attempted,
		SuccessfulQueries: fetched.Succeeded,
		QueryErrors:       fetched.Errors,
	}
	for i, r := range ranked {
		resp.Headlines[i] = r.Headline(includeRanking)
	}
	if includeRanking {
		resp.Ranking = &types.RankingSummary{
			Strategy: headlines.RankingStrategy,
			Weights:  s.Weights.AsMap(),
			RankedAt: now.UTC(),
		}
	}
	for _, qe := range fetched.Errors {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s query %q failed: %s", qe.Provider, qe.Query, qe.Message))
	}

	if req.Summarize && len(ranked) > 0 {
		s.attachSummaries(ctx, resp, ranked)
	}

	s.Logger.Info().
		Int("queries", len(queries)).
		Int("articles", len(articles)).
		Int("candidates", len(candidates)).
		Int("returned", len(resp.Headlines)).
		Msg("headlines ranked")
	return resp, nil
}

// Search runs the queries of req and returns the raw articles inside its date window,
// without aggregation. Partial failures are logged.
func (s *Service) Search(ctx context.Context, req *types.HeadlinesRequest) ([]types.RawArticle, error) {
	now := s.now()
	fetched, queries, err := s.fetch(ctx, req, now)
	if err != nil {
		return nil, err
	}
	return FilterWindow(fetched.Articles, queries[0].From, queries[0].To, now), nil
}

func (s *Service) fetch(ctx context.Context, req *types.HeadlinesRequest, now time.Time) (*FetchResult, []Query, error) {
	if len(s.Providers) == 0 {
		return nil, nil, &NoProvidersError{}
	}

	queries := BuildQueries(req, now, s.PageSize)
	fetched := Fetch(ctx, s.Providers, queries, s.Concurrency, s.Logger)
	if fetched.Attempted == 0 {
		names := make([]string, len(s.Providers))
		for i, p := range s.Providers {
			names[i] = p.Name()
		}
		return nil, nil, &UnsupportedRequestError{Providers: names}
	}
	if fetched.Succeeded == 0 {
		return nil, nil, &AllFailedError{Attempted: fetched.Attempted, First: fetched.FirstError}
	}
	return fetched, queries, nil
}

func (s *Service) attachSummaries(ctx context.Context, resp *types.HeadlinesResponse, ranked []headlines.Ranked) {
	if s.Summarizer == nil {
		resp.Warnings = append(resp.Warnings, "summaries unavailable: no LLM provider is configured")
		return
	}
	summaries, err := s.Summarizer.Summarize(ctx, ranked, s.SummaryClusters)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("cluster summaries failed")
		resp.Warnings = append(resp.Warnings, "summaries unavailable: "+err.Error())
		return
	}
	for i := range resp.Headlines {
		if summary, ok := summaries[i]; ok {
			resp.Headlines[i].Summary = &summary
		}
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// FilterWindow drops articles whose publish time is known and outside [from, to].
// Articles with unknown publish times are kept.
func FilterWindow(articles []types.RawArticle, from, to, now time.Time) []types.RawArticle {
	if from.IsZero() && to.IsZero() {
		return articles
	}
	if !to.IsZero() && to.Hour() == 0 && to.Minute() == 0 && to.Second() == 0 {
		// A bare date includes the whole day.
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	out := make([]types.RawArticle, 0, len(articles))
	for _, a := range articles {
		published, ok := headlines.ParsePublishedAt(a.PublishedAt, now)
		if ok {
			if !from.IsZero() && published.Before(from) {
				continue
			}
			if !to.IsZero() && published.After(to) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}
