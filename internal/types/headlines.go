// Package types provides type definitions for structured data used throughout the content-studio system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RawArticle is an article as returned by an upstream search or news API.
// Fields may be empty; nothing downstream trusts it until it is normalized.
type RawArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	SourceName  string `json:"source"`
	PublishedAt string `json:"publishedAt"`
	Engine      string `json:"engine,omitempty"`
}

// NormalizedHeadline is a RawArticle with a non-empty title and URL.
type NormalizedHeadline struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Engine      string `json:"engine,omitempty"`
}

// RelatedArticle is a near-duplicate folded into a candidate.
type RelatedArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// RankingComponents holds the per-component scores, each in [0,1].
type RankingComponents struct {
	Recency         float64 `json:"recency"`
	SourceDiversity float64 `json:"sourceDiversity"`
	TopicCoverage   float64 `json:"topicCoverage"`
}

// RankingDetails holds the raw measurements behind the components.
type RankingDetails struct {
	AgeHours          *float64 `json:"ageHours"`
	SourceOccurrences int      `json:"sourceOccurrences"`
	UniqueTokenRatio  float64  `json:"uniqueTokenRatio"`
}

// RankingMetadata is attached to every ranked candidate.
type RankingMetadata struct {
	Score      float64           `json:"score"`
	Components RankingComponents `json:"components"`
	Details    RankingDetails    `json:"details"`
	Reasons    []string          `json:"reasons"`
}

// HeadlineSummary is the optional LLM overview of a ranked cluster.
type HeadlineSummary struct {
	Overview string   `json:"overview"`
	Bullets  []string `json:"bullets"`
}

// RankedHeadline is a single item of the /api/headlines response.
type RankedHeadline struct {
	NormalizedHeadline
	Related []RelatedArticle `json:"related"`
	Ranking *RankingMetadata `json:"ranking,omitempty"`
	Summary *HeadlineSummary `json:"summary,omitempty"`
}

// HeadlinesRequest is the body of POST /api/headlines.
type HeadlinesRequest struct {
	Query          string   `json:"query" validate:"max=500"`
	Keywords       []string `json:"keywords" validate:"max=10,dive,max=100"`
	Category       string   `json:"category" validate:"omitempty,oneof=business entertainment general health science sports technology"`
	Country        string   `json:"country" validate:"omitempty,len=2"`
	Sources        []string `json:"sources" validate:"max=20"`
	Domains        []string `json:"domains" validate:"max=20,dive,fqdn"`
	ExcludeDomains []string `json:"excludeDomains" validate:"max=20,dive,fqdn"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	Freshness      string   `json:"freshness" validate:"omitempty,oneof=1h 6h 24h 7d 30d"`
	Language       string   `json:"language" validate:"omitempty,len=2"`
	Limit          int      `json:"limit" validate:"gte=0,lte=100"`
	Summarize      bool     `json:"summarize"`
	IncludeRanking *bool    `json:"includeRanking"`
}

// Validate checks field constraints and cross-field rules.
func (r *HeadlinesRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}

	if strings.TrimSpace(r.Query) == "" && len(r.Keywords) == 0 && r.Category == "" && r.Country == "" && len(r.Sources) == 0 {
		return fmt.Errorf("one of query, keywords, category, country or sources is required")
	}

	// NewsAPI rejects sources combined with country or category.
	if len(r.Sources) > 0 && (r.Category != "" || r.Country != "") {
		return fmt.Errorf("sources cannot be combined with country or category")
	}

	if len(r.Domains) > 0 && (r.Category != "" || r.Country != "") {
		return fmt.Errorf("domains cannot be combined with country or category")
	}

	if r.Freshness != "" && (r.From != "" || r.To != "") {
		return fmt.Errorf("freshness cannot be combined with from/to")
	}

	from, err := parseDateParam("from", r.From)
	if err != nil {
		return err
	}
	to, err := parseDateParam("to", r.To)
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return fmt.Errorf("from must not be after to")
	}

	return nil
}

// DateRange returns the parsed from/to bounds. Zero values mean unbounded.
func (r *HeadlinesRequest) DateRange() (time.Time, time.Time) {
	from, _ := parseDateParam("from", r.From)
	to, _ := parseDateParam("to", r.To)
	return from, to
}

// RankingEnabled reports whether ranking metadata should be included in the response.
func (r *HeadlinesRequest) RankingEnabled() bool {
	return r.IncludeRanking == nil || *r.IncludeRanking
}

func parseDateParam(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC3339 timestamp or YYYY-MM-DD date", name)
	}
	return t, nil
}

// QueryError reports one failed upstream query.
type QueryError struct {
	Query    string `json:"query"`
	Provider string `json:"provider"`
	Message  string `json:"message"`
}

// RankingSummary describes how the batch was ranked.
type RankingSummary struct {
	Strategy string             `json:"strategy"`
	Weights  map[string]float64 `json:"weights"`
	RankedAt time.Time          `json:"rankedAt"`
}

// HeadlinesResponse is the body returned by POST /api/headlines.
type HeadlinesResponse struct {
	Headlines         []RankedHeadline `json:"headlines"`
	TotalResults      int              `json:"totalResults"`
	QueriesAttempted  int              `json:"queriesAttempted"`
	SuccessfulQueries int              `json:"successfulQueries"`
	Ranking           *RankingSummary  `json:"ranking,omitempty"`
	Warnings          []string         `json:"warnings,omitempty"`
	QueryErrors       []QueryError     `json:"queryErrors,omitempty"`
}

// ReviewHeadline is one headline submitted for editorial review.
type ReviewHeadline struct {
	Title       string `json:"title" validate:"required,max=500"`
	URL         string `json:"url" validate:"omitempty,url"`
	Description string `json:"description" validate:"max=2000"`
	Source      string `json:"source" validate:"max=200"`
}

// ReviewRequest is the body of POST /api/headlines/review.
type ReviewRequest struct {
	Headlines    []ReviewHeadline `json:"headlines" validate:"required,min=1,max=50,dive"`
	Instructions string           `json:"instructions" validate:"max=2000"`
}

// Validate checks field constraints.
func (r *ReviewRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// HeadlineReview is the verdict for a single headline.
type HeadlineReview struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Verdict string `json:"verdict"`
	Score   int    `json:"score"`
	Reason  string `json:"reason"`
}

// ReviewResponse is the body returned by POST /api/headlines/review.
type ReviewResponse struct {
	Reviews []HeadlineReview `json:"reviews"`
}
