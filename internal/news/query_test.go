package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/content-studio/internal/types"
)

var fixedNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

func TestBuildQueries(t *testing.T) {
	tests := []struct {
		name     string
		req      types.HeadlinesRequest
		expected []string
	}{
		{
			name:     "query only",
			req:      types.HeadlinesRequest{Query: "interest rates"},
			expected: []string{"interest rates"},
		},
		{
			name:     "query with keywords",
			req:      types.HeadlinesRequest{Query: "fed", Keywords: []string{"inflation", "jobs"}},
			expected: []string{"fed", "fed inflation", "fed jobs"},
		},
		{
			name:     "keywords without query",
			req:      types.HeadlinesRequest{Keywords: []string{"inflation", " ", "jobs"}},
			expected: []string{"inflation", "jobs"},
		},
		{
			name:     "duplicate keywords are folded",
			req:      types.HeadlinesRequest{Keywords: []string{"AI", "ai", "chips"}},
			expected: []string{"AI", "chips"},
		},
		{
			name:     "filters only",
			req:      types.HeadlinesRequest{Category: "business", Country: "US"},
			expected: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries := BuildQueries(&tt.req, fixedNow, 20)
			texts := make([]string, len(queries))
			for i, q := range queries {
				texts[i] = q.Text
				assert.Equal(t, 20, q.PageSize)
			}
			assert.Equal(t, tt.expected, texts)
		})
	}
}

func TestBuildQueries_CopiesFilters(t *testing.T) {
	req := &types.HeadlinesRequest{
		Query:    "chips",
		Country:  "US",
		Language: "EN",
		Domains:  []string{"reuters.com"},
		From:     "2024-10-01",
		To:       "2024-10-10T00:00:00Z",
	}

	queries := BuildQueries(req, fixedNow, 10)
	require.Len(t, queries, 1)
	q := queries[0]
	assert.Equal(t, "us", q.Country)
	assert.Equal(t, "en", q.Language)
	assert.Equal(t, []string{"reuters.com"}, q.Domains)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), q.From)
	assert.Equal(t, time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC), q.To)
}

func TestBuildQueries_FreshnessOverridesRange(t *testing.T) {
	req := &types.HeadlinesRequest{Query: "chips", From: "2024-01-01", To: "2024-02-01", Freshness: "24h"}

	queries := BuildQueries(req, fixedNow, 10)
	require.Len(t, queries, 1)
	assert.Equal(t, fixedNow.Add(-24*time.Hour), queries[0].From)
	assert.True(t, queries[0].To.IsZero())
}

func TestQueryLabel(t *testing.T) {
	assert.Equal(t, "fed rates", Query{Text: "fed rates", Category: "business"}.Label())
	assert.Equal(t, "category:business country:us", Query{Category: "business", Country: "us"}.Label())
	assert.Equal(t, "sources:bbc-news,cnn", Query{Sources: []string{"bbc-news", "cnn"}}.Label())
	assert.Equal(t, "top-headlines", Query{}.Label())
}

func TestSerpTBS(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		expected string
	}{
		{name: "hour", query: Query{Freshness: "1h"}, expected: "qdr:h"},
		{name: "six hours", query: Query{Freshness: "6h"}, expected: "qdr:d"},
		{name: "week", query: Query{Freshness: "7d"}, expected: "qdr:w"},
		{name: "month", query: Query{Freshness: "30d"}, expected: "qdr:m"},
		{name: "none", query: Query{}, expected: ""},
		{
			name:     "range",
			query:    Query{From: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
			expected: "cdr:1,cd_min:3/5/2024,cd_max:3/9/2024",
		},
		{
			name:     "open ended",
			query:    Query{From: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
			expected: "cdr:1,cd_min:3/5/2024",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SerpTBS(tt.query))
		})
	}
}

func TestFreshnessWindow(t *testing.T) {
	window, ok := FreshnessWindow("7d")
	assert.True(t, ok)
	assert.Equal(t, 7*24*time.Hour, window)

	_, ok = FreshnessWindow("2w")
	assert.False(t, ok)
}
