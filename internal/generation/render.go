package generation

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/jonathan/content-studio/internal/llm"
)

var (
	htmlBlockTag  = regexp.MustCompile(`(?i)<(p|h[1-6]|ul|ol|li|blockquote|div|section|article|table)[\s>]`)
	documentShell = regexp.MustCompile(`(?is)</?(html|head|body)[^>]*>`)
	headSection   = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
)

// RenderHTML normalizes a model response into an HTML fragment. Code fences and document
// wrappers are removed, and Markdown responses are converted to HTML.
func RenderHTML(text string) string {
	text = llm.StripCodeFences(text)
	if text == "" {
		return ""
	}
	if LooksLikeHTML(text) {
		text = headSection.ReplaceAllString(text, "")
		text = documentShell.ReplaceAllString(text, "")
		return strings.TrimSpace(text)
	}
	return MarkdownToHTML(text)
}

// LooksLikeHTML reports whether text contains block level HTML tags.
func LooksLikeHTML(text string) bool {
	return htmlBlockTag.MatchString(text)
}

// MarkdownToHTML renders Markdown with common extensions. Links open in a new tab.
func MarkdownToHTML(text string) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	return strings.TrimSpace(string(markdown.ToHTML([]byte(text), mdParser, renderer)))
}
