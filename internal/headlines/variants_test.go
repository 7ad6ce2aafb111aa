package headlines

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURLVariants_SchemeWWWAndSlash(t *testing.T) {
	variants := BuildURLVariants("http://example.com/a")

	assert.Equal(t, []string{
		"http://example.com/a",
		"http://example.com/a/",
		"https://example.com/a",
		"https://example.com/a/",
		"http://www.example.com/a",
		"http://www.example.com/a/",
		"https://www.example.com/a",
		"https://www.example.com/a/",
	}, variants)
}

func TestBuildURLVariants_IncludesNormalizedInput(t *testing.T) {
	inputs := []string{
		"HTTPS://Example.com/Story",
		"https://example.com/a?x=1#frag",
		"https://www.google.com/url?q=https://example.com/story",
		"not a url",
		"  https://example.com/  ",
	}

	for _, input := range inputs {
		variants := BuildURLVariants(input)
		require.NotEmpty(t, variants, input)
		assert.Equal(t, canonicalizeURL(input), variants[0], input)
	}
}

func TestBuildURLVariants_StripsHashAndQuery(t *testing.T) {
	variants := BuildURLVariants("https://example.com/a?x=1#frag")

	assert.Contains(t, variants, "https://example.com/a?x=1#frag")
	assert.Contains(t, variants, "https://example.com/a?x=1")
	assert.Contains(t, variants, "https://example.com/a")
	assert.Contains(t, variants, "https://example.com/a/")
	assert.Contains(t, variants, "http://www.example.com/a")
	assert.NotContains(t, variants, "https://example.com/a?x=1/")
}

func TestBuildURLVariants_UnwrapsGoogleRedirect(t *testing.T) {
	variants := BuildURLVariants("https://www.google.com/url?q=https://example.com/story&sa=D")

	assert.Contains(t, variants, "https://example.com/story")
	assert.Contains(t, variants, "http://www.example.com/story/")
	assert.NotContains(t, variants, "https://www.google.com/url")
	assert.NotContains(t, variants, "https://google.com/url?q=https://example.com/story&sa=D")
}

func TestBuildURLVariants_UnwrapsGoogleNewsPathSegment(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte("\x08\x13\x22\x19https://example.com/story"))
	variants := BuildURLVariants("https://news.google.com/rss/articles/" + payload + "?oc=5")

	assert.Contains(t, variants, "https://example.com/story")
	assert.Contains(t, variants, "https://www.example.com/story/")
}

func TestBuildURLVariants_Unparseable(t *testing.T) {
	assert.Equal(t, []string{"not a url", "not a url/"}, BuildURLVariants("not a url"))
	assert.Nil(t, BuildURLVariants("   "))
}

func TestURLsEquivalent(t *testing.T) {
	assert.True(t, URLsEquivalent("https://www.example.com/story/", "http://example.com/story"))
	assert.True(t, URLsEquivalent("https://www.google.com/url?q=https://example.com/story", "https://example.com/story?utm_source=x"))
	assert.False(t, URLsEquivalent("https://example.com/story", "https://example.com/other"))
	assert.False(t, URLsEquivalent("", "https://example.com/story"))
}
