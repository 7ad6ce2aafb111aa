// Package review asks an LLM for an editorial keep or drop verdict on candidate headlines.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/prompts"
	"github.com/jonathan/content-studio/internal/schemas"
	"github.com/jonathan/content-studio/internal/types"
)

// DefaultMaxTokens bounds the review response.
const DefaultMaxTokens = 4096

// Verdicts.
const (
	VerdictKeep = "keep"
	VerdictDrop = "drop"
)

// IncompleteError is returned when the model skips headlines.
type IncompleteError struct {
	Missing []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("review is missing verdicts for headlines %v", e.Missing)
}

// Reviewer reviews headlines.
type Reviewer struct {
	Client    llm.Client
	MaxTokens int
	Logger    zerolog.Logger
}

// New creates a Reviewer.
func New(client llm.Client, logger zerolog.Logger) *Reviewer {
	return &Reviewer{Client: client, MaxTokens: DefaultMaxTokens, Logger: logger}
}

type reviewPayload struct {
	Reviews []struct {
		Index   int    `json:"index"`
		Verdict string `json:"verdict"`
		Score   int    `json:"score"`
		Reason  string `json:"reason"`
	} `json:"reviews"`
}

// Review returns one verdict per headline in input order. Verdicts for unknown indices are
// ignored, the first verdict for an index wins, and a headline without a verdict is an
// *IncompleteError.
func (r *Reviewer) Review(ctx context.Context, req *types.ReviewRequest) (*types.ReviewResponse, error) {
	system, err := prompts.Get(prompts.Headlines, "review-system")
	if err != nil {
		return nil, err
	}
	input := FormatHeadlines(req.Headlines)
	if instructions := strings.TrimSpace(req.Instructions); instructions != "" {
		rendered, err := prompts.Render(prompts.Headlines, "review-instructions", map[string]string{"Instructions": instructions})
		if err != nil {
			return nil, err
		}
		input = rendered + "\n\n" + input
	}

	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	resp, err := r.Client.Complete(ctx, llm.Request{
		System:    system,
		Prompt:    llm.BuildJSONPrompt(llm.HeadlineReviewSchema(), input),
		Tier:      llm.TierLite,
		MaxTokens: maxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, err
	}

	var payload reviewPayload
	if err := schemas.Decode(schemas.Reviews, []byte(llm.CleanJSONBlock(resp.Text)), &payload); err != nil {
		return nil, fmt.Errorf("invalid headline reviews: %w", err)
	}

	byIndex := make(map[int]types.HeadlineReview, len(req.Headlines))
	for _, v := range payload.Reviews {
		if v.Index < 0 || v.Index >= len(req.Headlines) {
			r.Logger.Debug().Int("index", v.Index).Msg("review for unknown headline dropped")
			continue
		}
		if _, dup := byIndex[v.Index]; dup {
			continue
		}
		byIndex[v.Index] = types.HeadlineReview{
			Index:   v.Index,
			Title:   req.Headlines[v.Index].Title,
			Verdict: v.Verdict,
			Score:   v.Score,
			Reason:  strings.TrimSpace(v.Reason),
		}
	}

	var missing []int
	reviews := make([]types.HeadlineReview, 0, len(byIndex))
	for i := range req.Headlines {
		v, ok := byIndex[i]
		if !ok {
			missing = append(missing, i)
			continue
		}
		reviews = append(reviews, v)
	}
	if len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing}
	}

	return &types.ReviewResponse{Reviews: reviews}, nil
}

// FormatHeadlines renders headlines as the numbered input block of the review prompt.
func FormatHeadlines(items []types.ReviewHeadline) string {
	var sb strings.Builder
	for i, h := range items {
		fmt.Fprintf(&sb, "%d. %s", i, strings.TrimSpace(h.Title))
		if h.Source != "" {
			fmt.Fprintf(&sb, " (%s)", h.Source)
		}
		if h.Description != "" {
			fmt.Fprintf(&sb, "\n   %s", strings.TrimSpace(h.Description))
		}
		if h.URL != "" {
			fmt.Fprintf(&sb, "\n   %s", h.URL)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
