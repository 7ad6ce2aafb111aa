package news

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/content-studio/internal/types"
)

// DefaultConcurrency bounds parallel upstream calls per request.
const DefaultConcurrency = 4

// FetchResult is the combined outcome of a fan-out.
type FetchResult struct {
	// Articles in (query, provider) order.
	Articles  []types.RawArticle
	Attempted int
	Succeeded int
	Errors    []types.QueryError
	// FirstError is the first failure in (query, provider) order.
	FirstError error
}

type slot struct {
	query    Query
	provider Provider
	articles []types.RawArticle
	err      error
}

// Fetch runs every query against every provider with at most concurrency calls in flight.
// A failed call is recorded in Errors and never cancels the others. Results keep the
// (query, provider) order so aggregation is deterministic.
func Fetch(ctx context.Context, providers []Provider, queries []Query, concurrency int, logger zerolog.Logger) *FetchResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	slots := make([]slot, 0, len(queries)*len(providers))
	for _, q := range queries {
		for _, p := range providers {
			slots = append(slots, slot{query: q, provider: p})
		}
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range slots {
		s := &slots[i]
		g.Go(func() error {
			s.articles, s.err = s.provider.Search(gCtx, s.query)
			return nil
		})
	}
	_ = g.Wait()

	result := &FetchResult{}
	for i := range slots {
		s := &slots[i]
		if errors.Is(s.err, ErrUnsupportedQuery) {
			continue
		}
		result.Attempted++
		if s.err != nil {
			logger.Warn().Err(s.err).Str("provider", s.provider.Name()).Str("query", s.query.Label()).Msg("upstream query failed")
			result.Errors = append(result.Errors, types.QueryError{
				Query:    s.query.Label(),
				Provider: s.provider.Name(),
				Message:  s.err.Error(),
			})
			if result.FirstError == nil {
				result.FirstError = s.err
			}
			continue
		}
		result.Succeeded++
		result.Articles = append(result.Articles, s.articles...)
	}

	logger.Debug().
		Int("attempted", result.Attempted).
		Int("succeeded", result.Succeeded).
		Int("articles", len(result.Articles)).
		Msg("upstream fan-out complete")
	return result
}
