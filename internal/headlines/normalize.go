// Package headlines provides headline normalization, near-duplicate aggregation and ranking.
package headlines

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/content-studio/internal/types"
)

// DefaultMaxTokens bounds the size of a candidate's token set.
const DefaultMaxTokens = 64

// minTokenLength is the shortest token kept in a token set.
const minTokenLength = 3

var (
	nonAlphanumericRun = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	embeddedURL        = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)
	publisherSeparator = regexp.MustCompile(`\s+(?:-|–|—|\|)\s+`)
	commonTLD          = regexp.MustCompile(`\.(com|net|org|co\.uk|co|news|io|info)$`)
)

// Publisher suffix limits; longer tails are treated as part of the headline.
const (
	maxPublisherWords = 5
	maxPublisherChars = 40
)

// NormalizeURLForComparison produces the key used to compare two URLs.
// Parseable absolute URLs reduce to lowercase host+path without trailing slashes, so case,
// trailing slash, scheme, query and fragment differences collapse. Anything else falls back to
// the lowercased trimmed string with trailing slashes stripped (scheme is kept in that case).
func NormalizeURLForComparison(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err == nil && parsed.Scheme != "" && parsed.Host != "" {
		path := strings.TrimRight(parsed.EscapedPath(), "/")
		return strings.ToLower(parsed.Host + path)
	}

	return strings.TrimRight(strings.ToLower(trimmed), "/")
}

// NormalizeHeadlineText lowercases text and collapses every run of non-alphanumeric characters
// into a single space.
func NormalizeHeadlineText(text string) string {
	lowered := strings.ToLower(text)
	return strings.TrimSpace(nonAlphanumericRun.ReplaceAllString(lowered, " "))
}

// BuildTokenSet builds the bounded token set used for overlap comparison.
func BuildTokenSet(title, description string) *TokenSet {
	return buildTokenSet(title, description, DefaultMaxTokens)
}

func buildTokenSet(title, description string, maxTokens int) *TokenSet {
	text := strings.ToLower(title + " " + description)
	text = embeddedURL.ReplaceAllString(text, " ")
	text = nonAlphanumericRun.ReplaceAllString(text, " ")

	set := NewTokenSet(maxTokens)
	for _, token := range strings.Fields(text) {
		if utf8.RuneCountInString(token) < minTokenLength {
			continue
		}
		if !set.Add(token) && set.Full() {
			break
		}
	}
	return set
}

// SplitPublisherSuffix separates a trailing publisher name ("Story title — CNN") from a title.
// When no plausible suffix is found, the publisher is empty and the title is returned trimmed.
func SplitPublisherSuffix(title string) (string, string) {
	title = strings.TrimSpace(title)
	locs := publisherSeparator.FindAllStringIndex(title, -1)
	if len(locs) == 0 {
		return title, ""
	}

	last := locs[len(locs)-1]
	head := strings.TrimSpace(title[:last[0]])
	tail := strings.TrimSpace(title[last[1]:])
	if head == "" || tail == "" {
		return title, ""
	}
	if utf8.RuneCountInString(tail) > maxPublisherChars || len(strings.Fields(tail)) > maxPublisherWords {
		return title, ""
	}
	// A headline rarely ends with a sentence; publishers never do.
	if strings.ContainsAny(tail, ".?!") && !commonTLD.MatchString(strings.ToLower(tail)) {
		return title, ""
	}
	return head, tail
}

// StripPublisherSuffix removes a trailing publisher from title when it names the item's
// source or URL host. Any other tail is part of the headline and is kept.
func StripPublisherSuffix(title, source, link string) string {
	head, publisher := SplitPublisherSuffix(title)
	if publisher == "" {
		return strings.TrimSpace(title)
	}
	if samePublisher(publisher, source) || samePublisher(publisher, HostOf(link)) {
		return head
	}
	return strings.TrimSpace(title)
}

func samePublisher(a, b string) bool {
	na := NormalizePublisherName(a)
	return na != "" && na == NormalizePublisherName(b)
}

// NormalizePublisherName folds publisher names so "The Verge", "theverge.com" and
// "www.theverge.com" compare equal.
func NormalizePublisherName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "www.")
	name = commonTLD.ReplaceAllString(name, "")
	name = nonAlphanumericRun.ReplaceAllString(name, "")
	return name
}

// HostOf returns the URL host without a leading "www.", or "" if the URL has no host.
func HostOf(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// Normalize converts a raw upstream article into a NormalizedHeadline.
// It returns false when the title or URL is missing.
func Normalize(raw types.RawArticle) (types.NormalizedHeadline, bool) {
	title := strings.TrimSpace(raw.Title)
	link := strings.TrimSpace(raw.URL)
	if title == "" || link == "" {
		return types.NormalizedHeadline{}, false
	}

	source := strings.TrimSpace(raw.SourceName)
	if source == "" {
		source = HostOf(link)
		if _, publisher := SplitPublisherSuffix(title); samePublisher(publisher, source) {
			source = publisher
		}
	}

	return types.NormalizedHeadline{
		Title:       title,
		URL:         link,
		Description: strings.TrimSpace(raw.Description),
		Source:      source,
		PublishedAt: strings.TrimSpace(raw.PublishedAt),
		Engine:      raw.Engine,
	}, true
}
