//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// Article types understood by the generator.
const (
	ArticleTypeNews     = "news"
	ArticleTypeListicle = "listicle"
	ArticleTypeHowTo    = "how-to"
	ArticleTypeReview   = "review"
	ArticleTypeOpinion  = "opinion"
)

// Article lengths map to minimum word counts in the generation config.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// Source is a reference the generated article must cite.
type Source struct {
	Title       string `json:"title" validate:"max=500"`
	URL         string `json:"url" validate:"required,url"`
	Publisher   string `json:"publisher,omitempty" validate:"max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Topic         string   `json:"topic" validate:"required,min=3,max=500"`
	ArticleType   string   `json:"articleType" validate:"omitempty,oneof=news listicle how-to review opinion"`
	Tone          string   `json:"tone" validate:"max=100"`
	Audience      string   `json:"audience" validate:"max=200"`
	Length        string   `json:"length" validate:"omitempty,oneof=short medium long"`
	WordCount     int      `json:"wordCount" validate:"gte=0,lte=5000"`
	ListItems     int      `json:"listItems" validate:"gte=0,lte=50"`
	Keywords      []string `json:"keywords" validate:"max=20,dive,max=100"`
	Sources       []Source `json:"sources" validate:"max=10,dive"`
	FetchSources  bool     `json:"fetchSources"`
	Freshness     string   `json:"freshness" validate:"omitempty,oneof=1h 6h 24h 7d 30d"`
	Provider      string   `json:"provider" validate:"omitempty,oneof=openai gemini"`
	Instructions  string   `json:"instructions" validate:"max=4000"`
	IncludeImages bool     `json:"includeImages"`
}

// Validate checks field constraints.
func (r *GenerateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// EffectiveArticleType returns the article type with its default applied.
func (r *GenerateRequest) EffectiveArticleType() string {
	if r.ArticleType == "" {
		return ArticleTypeNews
	}
	return r.ArticleType
}

// EffectiveLength returns the length with its default applied.
func (r *GenerateRequest) EffectiveLength() string {
	if r.Length == "" {
		return LengthMedium
	}
	return r.Length
}

// GenerationMeta describes how an article was produced.
type GenerationMeta struct {
	Attempts  int      `json:"attempts"`
	Model     string   `json:"model"`
	Provider  string   `json:"provider"`
	Retries   []string `json:"retries,omitempty"`
	WordCount int      `json:"wordCount"`
	LinkCount int      `json:"linkCount"`
}

// GenerateResponse is the body returned by POST /api/generate.
type GenerateResponse struct {
	Content  string          `json:"content"`
	Sources  []Source        `json:"sources"`
	Meta     *GenerationMeta `json:"meta,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}
