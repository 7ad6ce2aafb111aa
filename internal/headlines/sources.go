package headlines

import (
	"github.com/jonathan/content-studio/internal/types"
)

// DefaultSourceLimit is the number of sources picked for a generated article.
const DefaultSourceLimit = 5

// SelectSources deduplicates search results and picks a publisher-diverse list of sources.
// One article per publisher is taken in first-seen order; leftover slots are filled with the
// remaining articles, also in first-seen order.
func SelectSources(articles []types.RawArticle, limit int) []types.Source {
	if limit <= 0 {
		limit = DefaultSourceLimit
	}

	agg := NewAggregator(DefaultOptions())
	agg.AddRaw(articles)
	candidates := agg.Candidates()

	picked := make([]bool, len(candidates))
	seenPublishers := make(map[string]struct{})
	out := make([]types.Source, 0, limit)

	for i, c := range candidates {
		if len(out) >= limit {
			break
		}
		key := publisherKey(c.Headline)
		if _, ok := seenPublishers[key]; ok {
			continue
		}
		seenPublishers[key] = struct{}{}
		picked[i] = true
		out = append(out, sourceFromHeadline(c.Headline))
	}

	for i, c := range candidates {
		if len(out) >= limit {
			break
		}
		if picked[i] {
			continue
		}
		out = append(out, sourceFromHeadline(c.Headline))
	}

	// Restore first-seen order across both passes.
	return orderByFirstSeen(out, candidates)
}

func publisherKey(h types.NormalizedHeadline) string {
	if key := NormalizePublisherName(h.Source); key != "" {
		return key
	}
	if key := NormalizePublisherName(HostOf(h.URL)); key != "" {
		return key
	}
	return unknownSource
}

func sourceFromHeadline(h types.NormalizedHeadline) types.Source {
	title := StripPublisherSuffix(h.Title, h.Source, h.URL)
	return types.Source{
		Title:       title,
		URL:         h.URL,
		Publisher:   h.Source,
		Description: h.Description,
		PublishedAt: h.PublishedAt,
	}
}

func orderByFirstSeen(selected []types.Source, candidates []*Candidate) []types.Source {
	chosen := make(map[string]types.Source, len(selected))
	for _, s := range selected {
		chosen[s.URL] = s
	}
	out := make([]types.Source, 0, len(selected))
	for _, c := range candidates {
		if s, ok := chosen[c.Headline.URL]; ok {
			out = append(out, s)
			delete(chosen, c.Headline.URL)
		}
	}
	return out
}
