package headlines

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/content-studio/internal/types"
)

// RankingStrategy names the scoring used in the response metadata.
const RankingStrategy = "recency-diversity-coverage"

// DefaultRecencyWindowHours is the age at which the recency score reaches zero.
const DefaultRecencyWindowHours = 72.0

// Default component weights.
const (
	DefaultRecencyWeight         = 0.5
	DefaultSourceDiversityWeight = 0.25
	DefaultTopicCoverageWeight   = 0.25
)

// unknownSource groups candidates that carry no source name.
const unknownSource = "unknown"

// Weights are the composite score weights and the recency window.
type Weights struct {
	Recency            float64
	SourceDiversity    float64
	TopicCoverage      float64
	RecencyWindowHours float64
}

// DefaultWeights returns the default weights.
func DefaultWeights() Weights {
	return Weights{
		Recency:            DefaultRecencyWeight,
		SourceDiversity:    DefaultSourceDiversityWeight,
		TopicCoverage:      DefaultTopicCoverageWeight,
		RecencyWindowHours: DefaultRecencyWindowHours,
	}
}

// AsMap returns the component weights keyed by their JSON names.
func (w Weights) AsMap() map[string]float64 {
	return map[string]float64{
		"recency":         w.Recency,
		"sourceDiversity": w.SourceDiversity,
		"topicCoverage":   w.TopicCoverage,
	}
}

// Ranked is a candidate with its ranking metadata.
type Ranked struct {
	Candidate *Candidate
	Ranking   types.RankingMetadata
	// Index is the candidate's insertion position before sorting.
	Index int
}

// Headline converts a ranked candidate into its response shape.
func (r Ranked) Headline(includeRanking bool) types.RankedHeadline {
	related := r.Candidate.Related
	if related == nil {
		related = []types.RelatedArticle{}
	}
	out := types.RankedHeadline{
		NormalizedHeadline: r.Candidate.Headline,
		Related:            related,
	}
	if includeRanking {
		ranking := r.Ranking
		out.Ranking = &ranking
	}
	return out
}

// Rank scores every candidate and returns them sorted by score descending, then by age
// ascending with unknown ages last, then by insertion order. It does not modify candidates.
func Rank(candidates []*Candidate, now time.Time, w Weights) []Ranked {
	if w.RecencyWindowHours <= 0 {
		w.RecencyWindowHours = DefaultRecencyWindowHours
	}

	sourceCounts := make(map[string]int, len(candidates))
	tokenCounts := make(map[string]int)
	for _, c := range candidates {
		sourceCounts[sourceKey(c.Headline.Source)]++
		for _, token := range c.Tokens.Tokens() {
			tokenCounts[token]++
		}
	}

	ranked := make([]Ranked, 0, len(candidates))
	for i, c := range candidates {
		age := AgeHours(c.Headline.PublishedAt, now)
		recency := recencyScore(age, w.RecencyWindowHours)

		occurrences := sourceCounts[sourceKey(c.Headline.Source)]
		diversity := 1.0 / float64(occurrences)

		coverage := uniqueTokenRatio(c.Tokens, tokenCounts)

		components := types.RankingComponents{
			Recency:         recency,
			SourceDiversity: diversity,
			TopicCoverage:   coverage,
		}
		ranked = append(ranked, Ranked{
			Candidate: c,
			Index:     i,
			Ranking: types.RankingMetadata{
				Score:      w.Recency*recency + w.SourceDiversity*diversity + w.TopicCoverage*coverage,
				Components: components,
				Details: types.RankingDetails{
					AgeHours:          age,
					SourceOccurrences: occurrences,
					UniqueTokenRatio:  coverage,
				},
				Reasons: buildReasons(components, age),
			},
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Ranking.Score != b.Ranking.Score {
			return a.Ranking.Score > b.Ranking.Score
		}
		ageA, ageB := a.Ranking.Details.AgeHours, b.Ranking.Details.AgeHours
		switch {
		case ageA != nil && ageB != nil && *ageA != *ageB:
			return *ageA < *ageB
		case ageA != nil && ageB == nil:
			return true
		case ageA == nil && ageB != nil:
			return false
		}
		return a.Index < b.Index
	})

	return ranked
}

func sourceKey(source string) string {
	key := strings.ToLower(strings.TrimSpace(source))
	if key == "" {
		return unknownSource
	}
	return key
}

func recencyScore(age *float64, window float64) float64 {
	if age == nil {
		return 0
	}
	clamped := math.Min(math.Max(*age, 0), window)
	return 1 - clamped/window
}

// uniqueTokenRatio is the share of a candidate's tokens that no other candidate holds.
func uniqueTokenRatio(tokens *TokenSet, counts map[string]int) float64 {
	if tokens.Len() == 0 {
		return 0
	}
	unique := 0
	for _, token := range tokens.Tokens() {
		if counts[token] <= 1 {
			unique++
		}
	}
	return float64(unique) / float64(tokens.Len())
}

// buildReasons explains the ranking in plain sentences.
func buildReasons(c types.RankingComponents, age *float64) []string {
	reasons := []string{}

	switch {
	case age == nil:
		reasons = append(reasons, "Publish time unknown")
	case c.Recency >= 0.75:
		reasons = append(reasons, "Published within the last 18 hours")
	case c.Recency >= 0.5:
		reasons = append(reasons, "Published within the last 36 hours")
	}

	if c.SourceDiversity >= 1 {
		reasons = append(reasons, "Unique source in this batch")
	} else if c.SourceDiversity <= 0.25 {
		reasons = append(reasons, "Source appears multiple times")
	}

	if c.TopicCoverage >= 0.5 {
		reasons = append(reasons, "Covers details not found in other headlines")
	} else if c.TopicCoverage <= 0.1 {
		reasons = append(reasons, "Overlaps heavily with other headlines")
	}

	return reasons
}
