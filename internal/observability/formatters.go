// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/content-studio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// PrintHeadlines outputs the top ranked headlines with scores and query statistics.
func (p *Printer) PrintHeadlines(resp *types.HeadlinesResponse) {
	if resp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Queries: %d attempted, %d succeeded\n", resp.QueriesAttempted, resp.SuccessfulQueries))
	sb.WriteString(fmt.Sprintf("Stories: %d of %d\n", len(resp.Headlines), resp.TotalResults))

	count := min(len(resp.Headlines), maxItemsToShow)
	for i := 0; i < count; i++ {
		h := resp.Headlines[i]
		sb.WriteString(fmt.Sprintf("\n#%d  %s\n", i+1, h.Title))
		sb.WriteString(fmt.Sprintf("    %s", h.Source))
		if h.Ranking != nil {
			sb.WriteString(fmt.Sprintf("  score %.2f", h.Ranking.Score))
		}
		if len(h.Related) > 0 {
			sb.WriteString(fmt.Sprintf("  +%d related", len(h.Related)))
		}
		sb.WriteString("\n")
	}
	if len(resp.Headlines) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more stories\n", len(resp.Headlines)-maxItemsToShow))
	}

	for _, qe := range resp.QueryErrors {
		sb.WriteString(fmt.Sprintf("\n⚠ %s (%s): %s", qe.Query, qe.Provider, qe.Message))
	}
	for _, w := range resp.Warnings {
		sb.WriteString(fmt.Sprintf("\n⚠ %s", w))
	}

	p.printBox("RANKED HEADLINES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGeneration outputs how an article was produced.
func (p *Printer) PrintGeneration(resp *types.GenerateResponse) {
	if resp == nil || resp.Meta == nil {
		return
	}
	meta := resp.Meta

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Model:    %s (%s)\n", meta.Model, meta.Provider))
	sb.WriteString(fmt.Sprintf("Attempts: %d\n", meta.Attempts))
	sb.WriteString(fmt.Sprintf("Words:    %d\n", meta.WordCount))
	sb.WriteString(fmt.Sprintf("Links:    %d\n", meta.LinkCount))

	if len(meta.Retries) > 0 {
		sb.WriteString("\nRetried for:\n")
		for _, r := range meta.Retries {
			sb.WriteString(fmt.Sprintf("  • %s\n", r))
		}
	}

	if len(resp.Sources) > 0 {
		sb.WriteString("\nSources:\n")
		count := min(len(resp.Sources), maxItemsToShow)
		for i := 0; i < count; i++ {
			s := resp.Sources[i]
			label := s.Title
			if label == "" {
				label = s.URL
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", label))
		}
		if len(resp.Sources) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(resp.Sources)-maxItemsToShow))
		}
	}

	for _, w := range resp.Warnings {
		sb.WriteString(fmt.Sprintf("\n⚠ %s", w))
	}

	p.printBox("GENERATED ARTICLE", strings.TrimSuffix(sb.String(), "\n"))
}
