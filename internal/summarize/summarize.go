// Package summarize writes short overviews of ranked headline clusters with one batched
// LLM call.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/content-studio/internal/headlines"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/prompts"
	"github.com/jonathan/content-studio/internal/schemas"
	"github.com/jonathan/content-studio/internal/types"
)

const (
	// DefaultMaxTokens bounds the summary response.
	DefaultMaxTokens = 2048
	// MaxBullets is the number of bullets kept per cluster.
	MaxBullets = 4
	// maxRelated is the number of related articles shown per cluster.
	maxRelated = 5
)

// Summarizer summarizes clusters with an LLM.
type Summarizer struct {
	Client    llm.Client
	MaxTokens int
	Logger    zerolog.Logger
}

// New creates a Summarizer.
func New(client llm.Client, logger zerolog.Logger) *Summarizer {
	return &Summarizer{Client: client, MaxTokens: DefaultMaxTokens, Logger: logger}
}

type clusterPayload struct {
	Clusters []struct {
		Index    int      `json:"index"`
		Overview string   `json:"overview"`
		Bullets  []string `json:"bullets"`
	} `json:"clusters"`
}

// Summarize returns summaries for the first max ranked clusters keyed by rank position.
// Entries with an unknown index or an empty overview are dropped.
func (s *Summarizer) Summarize(ctx context.Context, ranked []headlines.Ranked, max int) (map[int]types.HeadlineSummary, error) {
	if max <= 0 || max > len(ranked) {
		max = len(ranked)
	}
	if max == 0 {
		return map[int]types.HeadlineSummary{}, nil
	}

	system, err := prompts.Get(prompts.Headlines, "summary-system")
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Complete(ctx, llm.Request{
		System:    system,
		Prompt:    llm.BuildJSONPrompt(llm.ClusterSummarySchema(), FormatClusters(ranked[:max])),
		Tier:      llm.TierLite,
		MaxTokens: s.maxTokens(),
		JSON:      true,
	})
	if err != nil {
		return nil, err
	}

	var payload clusterPayload
	if err := schemas.Decode(schemas.Summaries, []byte(llm.CleanJSONBlock(resp.Text)), &payload); err != nil {
		return nil, fmt.Errorf("invalid cluster summaries: %w", err)
	}

	out := make(map[int]types.HeadlineSummary, len(payload.Clusters))
	for _, c := range payload.Clusters {
		if c.Index < 0 || c.Index >= max {
			s.Logger.Debug().Int("index", c.Index).Msg("summary for unknown cluster dropped")
			continue
		}
		if _, dup := out[c.Index]; dup {
			continue
		}
		overview := strings.TrimSpace(c.Overview)
		if overview == "" {
			continue
		}
		out[c.Index] = types.HeadlineSummary{Overview: overview, Bullets: cleanBullets(c.Bullets)}
	}

	s.Logger.Debug().Int("clusters", max).Int("summaries", len(out)).Msg("cluster summaries ready")
	return out, nil
}

func (s *Summarizer) maxTokens() int {
	if s.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return s.MaxTokens
}

func cleanBullets(bullets []string) []string {
	out := make([]string, 0, min(len(bullets), MaxBullets))
	for _, b := range bullets {
		b = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(b), "-*•"))
		if b == "" {
			continue
		}
		out = append(out, b)
		if len(out) == MaxBullets {
			break
		}
	}
	return out
}

// FormatClusters renders clusters as the numbered input block of the summary prompt.
func FormatClusters(ranked []headlines.Ranked) string {
	var sb strings.Builder
	for i, r := range ranked {
		h := r.Candidate.Headline
		fmt.Fprintf(&sb, "Cluster %d:\n", i)
		writeArticle(&sb, h.Title, h.Source, h.Description)
		for j, rel := range r.Candidate.Related {
			if j == maxRelated {
				break
			}
			writeArticle(&sb, rel.Title, rel.Source, "")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func writeArticle(sb *strings.Builder, title, source, description string) {
	sb.WriteString("- ")
	sb.WriteString(title)
	if source != "" {
		fmt.Fprintf(sb, " (%s)", source)
	}
	if description != "" {
		sb.WriteString(": ")
		sb.WriteString(description)
	}
	sb.WriteString("\n")
}
