package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/types"
	"github.com/jonathan/content-studio/internal/usage"
)

// scriptedClient returns its responses in order and repeats the last one.
type scriptedClient struct {
	responses []*llm.Response
	err       error
	limit     int
	requests  []llm.Request
}

func (c *scriptedClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return nil, c.err
	}
	idx := min(len(c.requests)-1, len(c.responses)-1)
	return c.responses[idx], nil
}

func (c *scriptedClient) ContextLimit(llm.ModelTier) int { return c.limit }
func (c *scriptedClient) Name() string                  { return "fake" }
func (c *scriptedClient) Close() error                  { return nil }

func reply(text string) *llm.Response {
	return &llm.Response{Text: text, Model: "fake-model", CompletionTokens: 900}
}

var testSources = []types.Source{
	{Title: "Fed holds rates", URL: "https://www.reuters.com/markets/fed", Publisher: "Reuters"},
	{Title: "Payrolls surge", URL: "https://apnews.com/article/jobs", Publisher: "AP"},
}

func testConfig() config.GenerationConfig {
	return config.GenerationConfig{
		MaxTokens:        1000,
		MinLinks:         3,
		MaxLinksPerBlock: 2,
		MinWords:         map[string]int{"medium": 40},
		SourceLimit:      3,
	}
}

// paragraph builds a paragraph of filler words followed by links.
func paragraph(words int, links ...string) string {
	var sb strings.Builder
	sb.WriteString("<p>")
	sb.WriteString(strings.TrimSpace(strings.Repeat("lorem ", words)))
	for _, link := range links {
		fmt.Fprintf(&sb, ` <a href="%s">source</a>`, link)
	}
	sb.WriteString("</p>")
	return sb.String()
}

func articleHTML(paragraphs ...string) string {
	return "<h2>Markets</h2>\n" + strings.Join(paragraphs, "\n")
}

var goodDraft = articleHTML(
	paragraph(15, "http://reuters.com/markets/fed/"),
	paragraph(15),
	paragraph(15, "https://apnews.com/article/jobs"),
	paragraph(15),
)

func newTestGenerator(client llm.Client) *Generator {
	return NewGenerator(client, testConfig(), zerolog.Nop())
}

func TestGenerate_PassesFirstTime(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{reply("```html\n" + goodDraft + "\n```")}, limit: 16384}
	gen := newTestGenerator(client)

	result, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, llm.TierStandard, req.Tier)
	assert.Equal(t, 1000, req.MaxTokens)
	assert.Contains(t, req.System, "staff writer")
	assert.Contains(t, req.Prompt, "The Fed and jobs")
	assert.Contains(t, req.Prompt, "1. Fed holds rates (Reuters) - https://www.reuters.com/markets/fed")
	assert.Contains(t, req.Prompt, "at least 2 inline links")
	assert.Contains(t, req.Prompt, "at least 40 words")

	assert.Equal(t, goodDraft, result.HTML)
	assert.Equal(t, testSources, result.Sources)
	assert.Equal(t, 1, result.Meta.Attempts)
	assert.Equal(t, "fake", result.Meta.Provider)
	assert.Equal(t, "fake-model", result.Meta.Model)
	assert.Equal(t, 2, result.Meta.LinkCount)
	assert.Empty(t, result.Meta.Retries)
	assert.Empty(t, result.Warnings)

	resp := result.Response()
	assert.Equal(t, goodDraft, resp.Content)
	require.NotNil(t, resp.Meta)
}

func TestGenerate_RetriesMissingCitation(t *testing.T) {
	missingAP := articleHTML(
		paragraph(15, "https://www.reuters.com/markets/fed"),
		paragraph(15, "https://example.com/other"),
		paragraph(15),
	)
	client := &scriptedClient{responses: []*llm.Response{reply(missingAP), reply(goodDraft)}, limit: 16384}
	gen := newTestGenerator(client)

	result, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})
	require.NoError(t, err)

	require.Len(t, client.requests, 2)
	retry := client.requests[1].Prompt
	assert.True(t, strings.HasPrefix(retry, client.requests[0].Prompt))
	assert.Contains(t, retry, "did not link these required sources: Payrolls surge (https://apnews.com/article/jobs)")
	assert.Contains(t, retry, "Previous draft:\n"+missingAP)

	assert.Equal(t, 2, result.Meta.Attempts)
	assert.Equal(t, []string{"citations"}, result.Meta.Retries)
}

func TestGenerate_MissingCitationThenUnderLinked(t *testing.T) {
	first := articleHTML(
		paragraph(15, "https://www.reuters.com/markets/fed"),
		paragraph(15),
		paragraph(15),
	)
	// The rewrite drops its links instead of adding the missing one.
	second := articleHTML(paragraph(15), paragraph(15), paragraph(15))
	client := &scriptedClient{responses: []*llm.Response{reply(first), reply(second)}, limit: 16384}
	gen := newTestGenerator(client)

	result, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})
	require.Error(t, err)
	assert.Nil(t, result)

	var verr *VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ConditionCitations, verr.Condition)
	assert.Equal(t, 2, verr.Attempts)
	require.Len(t, verr.Missing, 2)
	assert.Equal(t, "https://apnews.com/article/jobs", verr.Missing[1].URL)
	assert.Contains(t, verr.Unmet, ConditionLinkCount)
	assert.Contains(t, err.Error(), "Payrolls surge (https://apnews.com/article/jobs)")
	assert.Contains(t, err.Error(), "also unmet: link_count")
	assert.Len(t, client.requests, 2)
}

func TestGenerate_EachCheckGetsOneRetry(t *testing.T) {
	short := articleHTML(
		paragraph(3, "https://www.reuters.com/markets/fed"),
		paragraph(3, "https://apnews.com/article/jobs"),
	)
	clustered := articleHTML(
		paragraph(15),
		paragraph(15),
		paragraph(15, "https://www.reuters.com/markets/fed", "https://apnews.com/article/jobs", "https://example.com/extra"),
	)
	client := &scriptedClient{responses: []*llm.Response{reply(clustered), reply(short), reply(goodDraft)}, limit: 16384}
	gen := newTestGenerator(client)

	result, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Meta.Attempts)
	assert.Equal(t, []string{"link_clustering", "word_count"}, result.Meta.Retries)
	third := client.requests[2].Prompt
	assert.Contains(t, third, "grouped its links together")
	assert.Contains(t, third, "words long but at least 40 words are required")
}

func TestGenerate_WordCountFailsAfterRetry(t *testing.T) {
	short := articleHTML(
		paragraph(3, "https://www.reuters.com/markets/fed"),
		paragraph(3, "https://apnews.com/article/jobs"),
	)
	client := &scriptedClient{responses: []*llm.Response{reply(short)}, limit: 16384}
	gen := newTestGenerator(client)

	_, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})

	var verr *VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ConditionWordCount, verr.Condition)
	assert.Equal(t, 34, verr.Required)
	assert.Equal(t, 40, verr.Target)
	assert.Empty(t, verr.Missing)
	assert.Contains(t, err.Error(), "at least 34 required for a 40 word target")
}

func TestGenerate_DoublesBudgetAfterTruncation(t *testing.T) {
	truncated := reply(articleHTML(paragraph(5, "https://www.reuters.com/markets/fed")))
	truncated.Truncated = true
	client := &scriptedClient{responses: []*llm.Response{truncated, reply(goodDraft)}, limit: 1500}
	gen := newTestGenerator(client)

	_, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})
	require.NoError(t, err)

	require.Len(t, client.requests, 2)
	assert.Equal(t, 1000, client.requests[0].MaxTokens)
	assert.Equal(t, 1500, client.requests[1].MaxTokens)
}

func TestGenerate_WarnsWhenFinalDraftTruncated(t *testing.T) {
	resp := reply(goodDraft)
	resp.Truncated = true
	client := &scriptedClient{responses: []*llm.Response{resp}, limit: 16384}

	result, err := newTestGenerator(client).Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})
	require.NoError(t, err)
	assert.Equal(t, []string{"the final draft reached the output token limit"}, result.Warnings)
}

func TestGenerate_ClientError(t *testing.T) {
	client := &scriptedClient{err: &llm.Error{Provider: "openai", Message: "request failed", StatusCode: 502}}

	_, err := newTestGenerator(client).Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs"})

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, 502, llmErr.StatusCode)
}

func TestGenerate_WithoutSources(t *testing.T) {
	draft := articleHTML(paragraph(20), paragraph(20))
	client := &scriptedClient{responses: []*llm.Response{reply(draft)}, limit: 16384}

	result, err := newTestGenerator(client).Generate(context.Background(), &types.GenerateRequest{
		Topic:         "Winter gardening",
		ArticleType:   types.ArticleTypeListicle,
		ListItems:     7,
		Length:        types.LengthLong,
		WordCount:     30,
		IncludeImages: true,
	})
	require.NoError(t, err)

	req := client.requests[0]
	assert.Equal(t, llm.TierAdvanced, req.Tier)
	assert.Contains(t, req.Prompt, "no sources provided")
	assert.Contains(t, req.Prompt, "followed by 7 numbered sections")
	assert.Contains(t, req.Prompt, "at least 30 words")
	assert.Contains(t, req.Prompt, "<figure>")
	assert.Empty(t, result.Sources)
}

type fakeSearcher struct {
	articles []types.RawArticle
	err      error
	got      *types.HeadlinesRequest
}

func (f *fakeSearcher) Search(_ context.Context, req *types.HeadlinesRequest) ([]types.RawArticle, error) {
	f.got = req
	return f.articles, f.err
}

func TestGenerate_FetchesSources(t *testing.T) {
	searcher := &fakeSearcher{articles: []types.RawArticle{
		{Title: "Fed holds rates", URL: "https://reuters.com/markets/fed/", SourceName: "Reuters"},
		{Title: "Payrolls surge", URL: "https://apnews.com/article/jobs", SourceName: "AP"},
		{Title: "Oil slips", URL: "https://www.bloomberg.com/oil", SourceName: "Bloomberg"},
		{Title: "Housing starts", URL: "https://www.cnbc.com/housing", SourceName: "CNBC"},
	}}
	draft := articleHTML(
		paragraph(15, "https://www.reuters.com/markets/fed"),
		paragraph(15, "https://apnews.com/article/jobs"),
		paragraph(15, "https://www.bloomberg.com/oil"),
		paragraph(15),
	)
	client := &scriptedClient{responses: []*llm.Response{reply(draft)}, limit: 16384}
	gen := newTestGenerator(client)
	gen.Searcher = searcher

	result, err := gen.Generate(context.Background(), &types.GenerateRequest{
		Topic:        "The Fed and jobs",
		Keywords:     []string{"a", "b", "c", "d"},
		Freshness:    "24h",
		Sources:      testSources[:1],
		FetchSources: true,
	})
	require.NoError(t, err)

	require.NotNil(t, searcher.got)
	assert.Equal(t, "The Fed and jobs", searcher.got.Query)
	assert.Equal(t, []string{"a", "b", "c"}, searcher.got.Keywords)
	assert.Equal(t, "24h", searcher.got.Freshness)

	urls := make([]string, len(result.Sources))
	for i, s := range result.Sources {
		urls[i] = s.URL
	}
	assert.Equal(t, []string{"https://www.reuters.com/markets/fed", "https://apnews.com/article/jobs", "https://www.bloomberg.com/oil"}, urls)
	assert.Contains(t, client.requests[0].Prompt, "at least 3 inline links")
}

func TestGenerate_SearchesOnlyWhenAsked(t *testing.T) {
	searcher := &fakeSearcher{articles: []types.RawArticle{
		{Title: "Oil slips", URL: "https://www.bloomberg.com/oil", SourceName: "Bloomberg"},
	}}
	client := &scriptedClient{responses: []*llm.Response{reply(goodDraft)}, limit: 16384}
	gen := newTestGenerator(client)
	gen.Searcher = searcher

	result, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})
	require.NoError(t, err)

	assert.Nil(t, searcher.got)
	assert.Len(t, result.Sources, len(testSources))
}

func TestGenerate_SearchFailureIsAWarning(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{reply(goodDraft)}, limit: 16384}
	gen := newTestGenerator(client)
	gen.Searcher = &fakeSearcher{err: errors.New("all 2 upstream queries failed")}

	result, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources, FetchSources: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"source search failed: all 2 upstream queries failed"}, result.Warnings)
}

func TestGenerate_NoSearcherConfigured(t *testing.T) {
	client := &scriptedClient{responses: []*llm.Response{reply(goodDraft)}, limit: 16384}

	result, err := newTestGenerator(client).Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources, FetchSources: true})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "source search unavailable")
}

type fakeExcerpts struct {
	mu   sync.Mutex
	text map[string]string
	hits []string
}

func (f *fakeExcerpts) Excerpt(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	f.hits = append(f.hits, url)
	f.mu.Unlock()
	if text, ok := f.text[url]; ok {
		return text, nil
	}
	return "", errors.New("no readable text")
}

func TestGenerate_IncludesExcerpts(t *testing.T) {
	excerpts := &fakeExcerpts{text: map[string]string{
		"https://www.reuters.com/markets/fed": "The Federal Reserve left its benchmark rate unchanged.",
	}}
	client := &scriptedClient{responses: []*llm.Response{reply(goodDraft)}, limit: 16384}
	gen := newTestGenerator(client)
	gen.Config.FetchSourceText = true
	gen.Excerpts = excerpts

	_, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})
	require.NoError(t, err)

	assert.Len(t, excerpts.hits, 2)
	prompt := client.requests[0].Prompt
	assert.Contains(t, prompt, "Excerpt: The Federal Reserve left its benchmark rate unchanged.")
	assert.NotContains(t, prompt, "no readable text")
}

func TestGenerate_UsageEstimateSetsBudget(t *testing.T) {
	store := usage.NewMemoryStore()
	store.Record(context.Background(), "news:medium", 2000)

	client := &scriptedClient{responses: []*llm.Response{reply(goodDraft)}, limit: 16384}
	gen := newTestGenerator(client)
	gen.Usage = store

	_, err := gen.Generate(context.Background(), &types.GenerateRequest{Topic: "The Fed and jobs", Sources: testSources})
	require.NoError(t, err)
	assert.Equal(t, 2500, client.requests[0].MaxTokens)

	estimate, ok := store.Estimate(context.Background(), "news:medium")
	require.True(t, ok)
	assert.Less(t, estimate, 2000)
}

func TestAppendDistinct(t *testing.T) {
	sources := appendDistinct(nil, []types.Source{
		{URL: "https://www.reuters.com/fed"},
		{URL: "http://reuters.com/fed/"},
		{URL: "https://apnews.com/jobs"},
		{URL: "https://bloomberg.com/oil"},
	}, 2)

	require.Len(t, sources, 2)
	assert.Equal(t, "https://www.reuters.com/fed", sources[0].URL)
	assert.Equal(t, "https://apnews.com/jobs", sources[1].URL)
}
