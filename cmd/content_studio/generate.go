package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-studio/internal/fetch"
	"github.com/jonathan/content-studio/internal/generation"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/news"
	"github.com/jonathan/content-studio/internal/observability"
	"github.com/jonathan/content-studio/internal/types"
	"github.com/jonathan/content-studio/internal/usage"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft a verified article and print its HTML",
	Long:  "Drafts an article with the configured LLM, checks citations, link count, link spread and length, and prints the HTML.",
	RunE:  runGenerate,
}

var (
	generateTopic        string
	generateType         string
	generateLength       string
	generateTone         string
	generateProvider     string
	generateKeywords     []string
	generateSources      []string
	generateFetchSources bool
	generateOutput       string
)

func init() {
	generateCmd.Flags().StringVarP(&generateTopic, "topic", "t", "", "Article topic (required)")
	generateCmd.Flags().StringVar(&generateType, "type", "", "Article type (news, listicle, how-to, review, opinion)")
	generateCmd.Flags().StringVar(&generateLength, "length", "", "Article length (short, medium, long)")
	generateCmd.Flags().StringVar(&generateTone, "tone", "", "Tone of voice")
	generateCmd.Flags().StringVar(&generateProvider, "provider", "", "LLM provider (openai, gemini)")
	generateCmd.Flags().StringSliceVarP(&generateKeywords, "keyword", "k", nil, "Keyword (repeatable)")
	generateCmd.Flags().StringSliceVarP(&generateSources, "source", "s", nil, "Source URL the article must cite (repeatable)")
	generateCmd.Flags().BoolVar(&generateFetchSources, "fetch-sources", false, "Search the news providers for more sources")
	generateCmd.Flags().StringVarP(&generateOutput, "out", "o", "", "Write the HTML to this file instead of stdout")

	if err := generateCmd.MarkFlagRequired("topic"); err != nil {
		panic(fmt.Sprintf("failed to mark topic flag as required: %v", err))
	}

	rootCmd.AddCommand(generateCmd)
}

func generateRequest() (*types.GenerateRequest, error) {
	req := &types.GenerateRequest{
		Topic:        strings.TrimSpace(generateTopic),
		ArticleType:  generateType,
		Length:       generateLength,
		Tone:         generateTone,
		Provider:     generateProvider,
		Keywords:     generateKeywords,
		FetchSources: generateFetchSources,
	}
	for _, u := range generateSources {
		req.Sources = append(req.Sources, types.Source{URL: u})
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	req, err := generateRequest()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	client, err := llm.NewClient(ctx, cfg, req.Provider)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	gen := generation.NewGenerator(client, cfg.Generation, logger)
	gen.Usage = usage.NewMemoryStore()
	if req.FetchSources {
		gen.Searcher = news.NewService(cfg, news.ProvidersFromConfig(cfg), nil, logger)
	}
	if cfg.Generation.FetchSourceText {
		var renderer fetch.Renderer
		if cfg.Generation.BrowserFallback {
			renderer = &fetch.BrowserRenderer{Timeout: fetch.DefaultBrowserTimeout, Logger: logger}
		}
		gen.Excerpts = fetch.NewExtractor(logger, renderer)
	}

	result, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		logger.Warn().Msg(w)
	}
	logger.Info().
		Int("attempts", result.Meta.Attempts).
		Int("words", result.Meta.WordCount).
		Int("links", result.Meta.LinkCount).
		Msg("article generated")
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintGeneration(result.Response())
	}

	if generateOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), result.HTML)
		return err
	}
	if dir := filepath.Dir(generateOutput); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(generateOutput, []byte(result.HTML), 0o600); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", generateOutput, err)
	}
	return nil
}
