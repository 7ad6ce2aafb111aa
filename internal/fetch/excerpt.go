package fetch

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
)

// DefaultExcerptChars caps the excerpt handed to the model per source.
const DefaultExcerptChars = 1500

// Extractor turns source URLs into short plain-text excerpts.
type Extractor struct {
	Options  *Options
	MaxChars int
	// Renderer is used when static extraction yields too little text. Nil disables it.
	Renderer Renderer
	Cache    *Cache
	Logger   zerolog.Logger
}

// NewExtractor creates an Extractor with default options and an in-memory cache.
func NewExtractor(logger zerolog.Logger, renderer Renderer) *Extractor {
	return &Extractor{
		Options:  DefaultOptions(),
		MaxChars: DefaultExcerptChars,
		Renderer: renderer,
		Cache:    NewCache(DefaultCacheTTL, DefaultCacheSize),
		Logger:   logger,
	}
}

// Excerpt fetches pageURL and returns the start of its readable text. Readability runs
// first, selector based extraction second, and the browser renderer last.
func (e *Extractor) Excerpt(ctx context.Context, pageURL string) (string, error) {
	if e.Cache != nil {
		if text, ok := e.Cache.Get(pageURL); ok {
			return text, nil
		}
	}

	result, err := URL(ctx, pageURL, e.Options)
	if err != nil {
		return "", err
	}

	text := ReadableText(result.HTML, result.URL)
	if ShouldUseBrowser(text) && e.Renderer != nil {
		e.Logger.Debug().Str("url", pageURL).Int("chars", len(text)).Msg("static extraction too short, rendering")
		html, renderErr := e.Renderer.Render(ctx, pageURL)
		if renderErr != nil {
			e.Logger.Warn().Err(renderErr).Str("url", pageURL).Msg("browser fallback failed")
		} else if rendered := ReadableText(html, pageURL); len(rendered) > len(text) {
			text = rendered
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", &Error{URL: pageURL, Message: "no readable text"}
	}

	excerpt := Truncate(text, e.maxChars())
	if e.Cache != nil {
		e.Cache.Set(pageURL, excerpt)
	}
	return excerpt, nil
}

func (e *Extractor) maxChars() int {
	if e.MaxChars <= 0 {
		return DefaultExcerptChars
	}
	return e.MaxChars
}

// ReadableText extracts article text from html. It prefers readability and falls back to
// platform selectors when readability finds nothing or less text.
func ReadableText(html, pageURL string) string {
	var best string
	if parsed, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(html), parsed); err == nil {
			best = cleanWhitespace(article.TextContent)
		}
	}

	platform := DetectPlatform(pageURL)
	if text, err := ExtractMainText(html, PlatformContentSelectors(platform), PlatformNoiseSelectors(platform)...); err == nil {
		if best == "" || (ShouldUseBrowser(best) && len(text) > len(best)) {
			best = text
		}
	}
	return best
}

// Truncate shortens text to at most maxChars bytes, cutting at a word boundary and
// appending an ellipsis.
func Truncate(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxChars {
		return text
	}

	cut := text[:maxChars]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	if idx := strings.LastIndexAny(cut, " \n"); idx > maxChars/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}
