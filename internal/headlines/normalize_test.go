package headlines

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jonathan/content-studio/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURLForComparison(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases host and path", "HTTPS://Example.COM/News/Story", "example.com/news/story"},
		{"strips trailing slashes", "https://example.com/story///", "example.com/story"},
		{"ignores scheme", "http://example.com/story", "example.com/story"},
		{"ignores query and fragment", "https://example.com/story?utm_source=x#top", "example.com/story"},
		{"root path", "https://example.com/", "example.com"},
		{"unparseable keeps scheme text", "  HTTP://%zz/Bad/  ", "http://%zz/bad"},
		{"no scheme falls back", "Example.com/Story/", "example.com/story"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeURLForComparison(tt.input))
		})
	}
}

func TestNormalizeURLForComparison_Idempotent(t *testing.T) {
	inputs := []string{
		"https://Example.com/a/b/",
		"http://www.example.com/a%20b?x=1",
		"HTTP://%zz/Bad/",
		"example.com/story",
		"https://news.google.com/rss/articles/CBMiK2h0dHBzOi8vZXhhbXBsZS5jb20vc3Rvcnk?oc=5",
		"not a url at all/",
		"",
	}

	for _, input := range inputs {
		once := NormalizeURLForComparison(input)
		assert.Equal(t, once, NormalizeURLForComparison(once), "input %q", input)
	}
}

func TestNormalizeHeadlineText(t *testing.T) {
	assert.Equal(t, "breaking fed raises rates", NormalizeHeadlineText("  Breaking: Fed Raises Rates!! "))
	assert.Equal(t, "café reopens 2024", NormalizeHeadlineText("Café reopens — 2024"))
	assert.Equal(t, "", NormalizeHeadlineText("---"))
}

func TestBuildTokenSet(t *testing.T) {
	set := BuildTokenSet("The Fed raises rates by 25 bps https://x.com/a", "Fed officials said")

	assert.Equal(t, []string{"the", "fed", "raises", "rates", "bps", "officials", "said"}, set.Tokens())
}

func TestBuildTokenSet_Cap(t *testing.T) {
	words := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		words = append(words, fmt.Sprintf("tok%03d", i))
	}

	set := BuildTokenSet(strings.Join(words, " "), "")

	require.Equal(t, DefaultMaxTokens, set.Len())
	tokens := set.Tokens()
	assert.Equal(t, "tok000", tokens[0])
	assert.Equal(t, "tok063", tokens[63])
	assert.False(t, set.Has("tok064"))
}

func TestSplitPublisherSuffix(t *testing.T) {
	tests := []struct {
		title     string
		headline  string
		publisher string
	}{
		{"Fed raises rates - Reuters", "Fed raises rates", "Reuters"},
		{"Fed raises rates — The Wall Street Journal", "Fed raises rates", "The Wall Street Journal"},
		{"Markets rally | cnbc.com", "Markets rally", "cnbc.com"},
		{"Markets rally - Stocks - CNN", "Markets rally - Stocks", "CNN"},
		{"Rates up - but why?", "Rates up - but why?", ""},
		{"A - B is what happens when everyone goes to the store", "A - B is what happens when everyone goes to the store", ""},
		{"No separator here", "No separator here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			headline, publisher := SplitPublisherSuffix(tt.title)
			assert.Equal(t, tt.headline, headline)
			assert.Equal(t, tt.publisher, publisher)
		})
	}
}

func TestStripPublisherSuffix(t *testing.T) {
	assert.Equal(t, "Fed raises rates", StripPublisherSuffix("Fed raises rates - Reuters", "Reuters", "https://x.com/a"))
	assert.Equal(t, "Fed raises rates", StripPublisherSuffix("Fed raises rates - The Verge", "", "https://www.theverge.com/a"))
	assert.Equal(t, "Biden - Trump", StripPublisherSuffix("Biden - Trump", "", "https://b.com/2"))
	assert.Equal(t, "Biden - Trump", StripPublisherSuffix(" Biden - Trump ", "CNN", "https://cnn.com/2"))
	assert.Equal(t, "No separator", StripPublisherSuffix("No separator", "CNN", ""))
}

func TestNormalizePublisherName(t *testing.T) {
	assert.Equal(t, "theverge", NormalizePublisherName("The Verge"))
	assert.Equal(t, "theverge", NormalizePublisherName("theverge.com"))
	assert.Equal(t, "theverge", NormalizePublisherName("www.TheVerge.com"))
	assert.Equal(t, "bbc", NormalizePublisherName("bbc.co.uk"))
	assert.Equal(t, "", NormalizePublisherName("  "))
}

func TestNormalize(t *testing.T) {
	t.Run("fills source from publisher suffix", func(t *testing.T) {
		h, ok := Normalize(types.RawArticle{Title: " Fed raises rates - Reuters ", URL: " https://reuters.com/a "})
		require.True(t, ok)
		assert.Equal(t, "Fed raises rates - Reuters", h.Title)
		assert.Equal(t, "https://reuters.com/a", h.URL)
		assert.Equal(t, "Reuters", h.Source)
	})

	t.Run("ignores a suffix that is not the publisher", func(t *testing.T) {
		h, ok := Normalize(types.RawArticle{Title: "Biden - Harris", URL: "https://a.com/1"})
		require.True(t, ok)
		assert.Equal(t, "a.com", h.Source)
	})

	t.Run("fills source from host", func(t *testing.T) {
		h, ok := Normalize(types.RawArticle{Title: "Fed raises rates", URL: "https://www.example.com/a"})
		require.True(t, ok)
		assert.Equal(t, "example.com", h.Source)
	})

	t.Run("keeps explicit source", func(t *testing.T) {
		h, ok := Normalize(types.RawArticle{Title: "Fed raises rates - Reuters", URL: "https://x.com/a", SourceName: "AP"})
		require.True(t, ok)
		assert.Equal(t, "AP", h.Source)
	})

	t.Run("rejects missing title or url", func(t *testing.T) {
		_, ok := Normalize(types.RawArticle{Title: "  ", URL: "https://x.com"})
		assert.False(t, ok)
		_, ok = Normalize(types.RawArticle{Title: "Title", URL: ""})
		assert.False(t, ok)
	})
}
