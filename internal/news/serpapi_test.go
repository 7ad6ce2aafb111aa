package news

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleNewsPayload = `{
  "search_metadata": {"status": "Success"},
  "news_results": [
    {
      "title": "Chipmakers rally on AI demand",
      "link": "https://www.cnbc.com/chips",
      "source": {"name": "CNBC"},
      "date": "10/15/2024, 09:00 AM, +0000 UTC"
    },
    {
      "highlight": {
        "title": "Election results roll in",
        "link": "https://apnews.com/election",
        "source": {"name": "AP"},
        "date": "2 hours ago"
      },
      "stories": [
        {"title": "Turnout hits record", "link": "https://www.reuters.com/turnout", "source": {"name": "Reuters"}},
        {"title": "", "link": "https://example.com/untitled"}
      ]
    }
  ]
}`

const organicPayload = `{
  "organic_results": [
    {"title": "Oil slips on supply", "link": "https://www.bloomberg.com/oil", "snippet": "Crude fell.", "source": "Bloomberg", "date": "1 day ago"}
  ]
}`

func TestSerpAPIClient_GoogleNews(t *testing.T) {
	var seen captured
	server := newsAPIServer(t, http.StatusOK, googleNewsPayload, &seen)
	client := NewSerpAPIClient("serp-key", EngineGoogleNews, server.URL, server.Client())

	articles, err := client.Search(context.Background(), Query{
		Text:           "chips",
		Domains:        []string{"cnbc.com"},
		ExcludeDomains: []string{"spam.com"},
		Country:        "us",
		Freshness:      "24h",
	})
	require.NoError(t, err)

	assert.Equal(t, "/search.json", seen.path)
	assert.Equal(t, "google_news", seen.query.Get("engine"))
	assert.Equal(t, "serp-key", seen.query.Get("api_key"))
	assert.Equal(t, "chips site:cnbc.com -site:spam.com when:24h", seen.query.Get("q"))
	assert.Equal(t, "us", seen.query.Get("gl"))
	assert.Empty(t, seen.query.Get("tbs"))

	require.Len(t, articles, 3)
	assert.Equal(t, "Chipmakers rally on AI demand", articles[0].Title)
	assert.Equal(t, "CNBC", articles[0].SourceName)
	assert.Equal(t, "Election results roll in", articles[1].Title)
	assert.Equal(t, "2 hours ago", articles[1].PublishedAt)
	assert.Equal(t, "Turnout hits record", articles[2].Title)
	assert.Equal(t, "Reuters", articles[2].SourceName)
	for _, a := range articles {
		assert.Equal(t, "serpapi:google_news", a.Engine)
	}
}

func TestSerpAPIClient_GoogleOrganic(t *testing.T) {
	var seen captured
	server := newsAPIServer(t, http.StatusOK, organicPayload, &seen)
	client := NewSerpAPIClient("serp-key", EngineGoogle, server.URL, server.Client())

	articles, err := client.Search(context.Background(), Query{Text: "oil", Freshness: "7d", PageSize: 20})
	require.NoError(t, err)

	assert.Equal(t, "google", seen.query.Get("engine"))
	assert.Equal(t, "oil", seen.query.Get("q"))
	assert.Equal(t, "qdr:w", seen.query.Get("tbs"))
	assert.Equal(t, "20", seen.query.Get("num"))

	require.Len(t, articles, 1)
	assert.Equal(t, "Bloomberg", articles[0].SourceName)
	assert.Equal(t, "Crude fell.", articles[0].Description)
}

func TestSerpAPIClient_NoResultsIsEmpty(t *testing.T) {
	server := newsAPIServer(t, http.StatusOK, `{"error": "Google hasn't returned any results for this query."}`, nil)
	client := NewSerpAPIClient("serp-key", EngineGoogleNews, server.URL, server.Client())

	articles, err := client.Search(context.Background(), Query{Text: "zzzz"})
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestSerpAPIClient_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		server := newsAPIServer(t, http.StatusOK, `{"error": "Invalid API key."}`, nil)
		client := NewSerpAPIClient("serp-key", EngineGoogleNews, server.URL, server.Client())

		_, err := client.Search(context.Background(), Query{Text: "chips"})
		var upstream *UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, "serpapi:google_news", upstream.Provider)
		assert.Equal(t, "Invalid API key.", upstream.Message)
	})

	t.Run("http error", func(t *testing.T) {
		server := newsAPIServer(t, http.StatusTooManyRequests, `{"error": "Your account has run out of searches."}`, nil)
		client := NewSerpAPIClient("serp-key", EngineGoogle, server.URL, server.Client())

		_, err := client.Search(context.Background(), Query{Text: "chips"})
		var upstream *UpstreamError
		require.True(t, errors.As(err, &upstream))
		assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
		assert.Equal(t, "Your account has run out of searches.", upstream.Message)
	})

	t.Run("query without text", func(t *testing.T) {
		client := NewSerpAPIClient("serp-key", EngineGoogleNews, "http://127.0.0.1:0", nil)

		_, err := client.Search(context.Background(), Query{Category: "business"})
		assert.ErrorIs(t, err, ErrUnsupportedQuery)
	})
}

func TestSerpAPIClient_DefaultEngine(t *testing.T) {
	client := NewSerpAPIClient("serp-key", "", "", nil)
	assert.Equal(t, "serpapi:google_news", client.Name())
}
