package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/news"
	"github.com/jonathan/content-studio/internal/observability"
	"github.com/jonathan/content-studio/internal/summarize"
	"github.com/jonathan/content-studio/internal/types"
)

var headlinesCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Print the ranked headline digest as JSON",
	Long:  "Searches the configured news providers, merges near-duplicate stories and prints the ranked headlines as JSON.",
	RunE:  runHeadlines,
}

var (
	headlinesQuery     string
	headlinesKeywords  []string
	headlinesCategory  string
	headlinesCountry   string
	headlinesFreshness string
	headlinesLimit     int
	headlinesSummarize bool
)

func init() {
	headlinesCmd.Flags().StringVarP(&headlinesQuery, "query", "q", "", "Free text query")
	headlinesCmd.Flags().StringSliceVarP(&headlinesKeywords, "keyword", "k", nil, "Keyword to search (repeatable)")
	headlinesCmd.Flags().StringVar(&headlinesCategory, "category", "", "NewsAPI category")
	headlinesCmd.Flags().StringVar(&headlinesCountry, "country", "", "Two-letter country code")
	headlinesCmd.Flags().StringVar(&headlinesFreshness, "freshness", "", "Freshness window (1h, 6h, 24h, 7d, 30d)")
	headlinesCmd.Flags().IntVarP(&headlinesLimit, "limit", "n", 0, "Maximum number of headlines")
	headlinesCmd.Flags().BoolVar(&headlinesSummarize, "summarize", false, "Summarize the top clusters with the LLM")
	rootCmd.AddCommand(headlinesCmd)
}

func headlinesRequest() (*types.HeadlinesRequest, error) {
	req := &types.HeadlinesRequest{
		Query:     headlinesQuery,
		Keywords:  headlinesKeywords,
		Category:  headlinesCategory,
		Country:   headlinesCountry,
		Freshness: headlinesFreshness,
		Limit:     headlinesLimit,
		Summarize: headlinesSummarize,
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

func runHeadlines(cmd *cobra.Command, _ []string) error {
	req, err := headlinesRequest()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var summarizer news.Summarizer
	if req.Summarize {
		client, err := llm.NewClient(ctx, cfg, "")
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = client.Close() }()
		summarizer = summarize.New(client, logger)
	}

	svc := news.NewService(cfg, news.ProvidersFromConfig(cfg), summarizer, logger)
	resp, err := svc.Headlines(ctx, req)
	if err != nil {
		return err
	}
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintHeadlines(resp)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal headlines to JSON: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
