package headlines

import (
	"github.com/jonathan/content-studio/internal/types"
)

// DefaultDuplicateThreshold is the token overlap ratio at which two headlines are the same story.
const DefaultDuplicateThreshold = 0.7

// Options tunes aggregation.
type Options struct {
	DuplicateThreshold float64
	MaxTokens          int
}

// DefaultOptions returns the default aggregation options.
func DefaultOptions() Options {
	return Options{
		DuplicateThreshold: DefaultDuplicateThreshold,
		MaxTokens:          DefaultMaxTokens,
	}
}

func (o Options) withDefaults() Options {
	if o.DuplicateThreshold <= 0 || o.DuplicateThreshold > 1 {
		o.DuplicateThreshold = DefaultDuplicateThreshold
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// Candidate is a deduplicated headline that may absorb near-duplicate articles.
type Candidate struct {
	Headline       types.NormalizedHeadline
	URLKey         string
	TitleKey       string
	DescriptionKey string
	Tokens         *TokenSet
	Related        []types.RelatedArticle

	relatedURLKeys map[string]struct{}
}

// NewCandidate builds the comparison keys for a normalized headline.
func NewCandidate(h types.NormalizedHeadline, maxTokens int) *Candidate {
	title := StripPublisherSuffix(h.Title, h.Source, h.URL)
	return &Candidate{
		Headline:       h,
		URLKey:         NormalizeURLForComparison(h.URL),
		TitleKey:       NormalizeHeadlineText(title),
		DescriptionKey: NormalizeHeadlineText(h.Description),
		Tokens:         buildTokenSet(title, h.Description, maxTokens),
		relatedURLKeys: make(map[string]struct{}),
	}
}

// AreNearDuplicate reports whether two candidates describe the same story: equal URL keys,
// equal title keys, equal description keys, or token overlap at or above threshold.
func AreNearDuplicate(a, b *Candidate, threshold float64) bool {
	if a.URLKey != "" && a.URLKey == b.URLKey {
		return true
	}
	if a.TitleKey != "" && a.TitleKey == b.TitleKey {
		return true
	}
	if a.DescriptionKey != "" && a.DescriptionKey == b.DescriptionKey {
		return true
	}
	return OverlapRatio(a.Tokens, b.Tokens) >= threshold
}

// isRepeatOf reports whether c is literally an article already held by existing.
func (c *Candidate) isRepeatOf(existing *Candidate) bool {
	if c.URLKey == "" {
		return false
	}
	if c.URLKey == existing.URLKey {
		return true
	}
	_, ok := existing.relatedURLKeys[c.URLKey]
	return ok
}

func (c *Candidate) absorb(other *Candidate) {
	if len(other.Headline.Description) > len(c.Headline.Description) {
		c.Headline.Description = other.Headline.Description
		c.DescriptionKey = other.DescriptionKey
	}
	c.Related = append(c.Related, types.RelatedArticle{
		Title:       other.Headline.Title,
		URL:         other.Headline.URL,
		Source:      other.Headline.Source,
		PublishedAt: other.Headline.PublishedAt,
	})
	if other.URLKey != "" {
		c.relatedURLKeys[other.URLKey] = struct{}{}
	}
	c.Tokens.Union(other.Tokens)
}

// Aggregator merges articles from several queries and engines into candidates.
// The first article seen for a story stays canonical. An Aggregator is not safe for
// concurrent use; it lives for one request.
type Aggregator struct {
	opts       Options
	candidates []*Candidate
}

// NewAggregator creates an empty aggregator.
func NewAggregator(opts Options) *Aggregator {
	return &Aggregator{opts: opts.withDefaults()}
}

// AddIfUnique folds h into the aggregate and reports whether it became a new candidate.
// A near-duplicate is attached as a related article of the first matching candidate, and
// its description replaces the existing one when longer. An article whose URL is already
// held by the match is ignored.
func (a *Aggregator) AddIfUnique(h types.NormalizedHeadline) bool {
	incoming := NewCandidate(h, a.opts.MaxTokens)

	for _, existing := range a.candidates {
		if !AreNearDuplicate(existing, incoming, a.opts.DuplicateThreshold) {
			continue
		}
		if incoming.isRepeatOf(existing) {
			return false
		}
		existing.absorb(incoming)
		return false
	}

	a.candidates = append(a.candidates, incoming)
	return true
}

// AddRaw normalizes and adds every raw article, skipping the ones without title or URL.
// It returns the number of new candidates.
func (a *Aggregator) AddRaw(articles []types.RawArticle) int {
	added := 0
	for _, raw := range articles {
		h, ok := Normalize(raw)
		if !ok {
			continue
		}
		if a.AddIfUnique(h) {
			added++
		}
	}
	return added
}

// Candidates returns the candidates in first-seen order.
func (a *Aggregator) Candidates() []*Candidate {
	out := make([]*Candidate, len(a.candidates))
	copy(out, a.candidates)
	return out
}

// Len returns the number of candidates.
func (a *Aggregator) Len() int {
	return len(a.candidates)
}
