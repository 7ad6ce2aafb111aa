package generation

import (
	"fmt"
	"strings"

	"github.com/jonathan/content-studio/internal/types"
)

// Condition names a verification requirement.
type Condition string

const (
	ConditionCitations      Condition = "citations"
	ConditionLinkCount      Condition = "link_count"
	ConditionLinkClustering Condition = "link_clustering"
	ConditionWordCount      Condition = "word_count"
)

// VerificationError is returned when a draft still fails a check after its retry.
type VerificationError struct {
	Condition Condition
	// Missing lists the required sources the final draft does not link.
	Missing  []types.Source
	Required int
	Actual   int
	Target   int
	Detail   string
	Attempts int
	// Unmet lists every condition the final draft fails, Condition included.
	Unmet []Condition
}

func (e *VerificationError) Error() string {
	var msg string
	switch e.Condition {
	case ConditionCitations:
		refs := make([]string, len(e.Missing))
		for i, s := range e.Missing {
			refs[i] = sourceRef(s)
		}
		msg = fmt.Sprintf("missing citations for required sources: %s", strings.Join(refs, "; "))
	case ConditionLinkCount:
		msg = fmt.Sprintf("link count shortfall: %d inline links, at least %d required", e.Actual, e.Required)
	case ConditionLinkClustering:
		msg = fmt.Sprintf("links are clustered: %s", e.Detail)
	case ConditionWordCount:
		msg = fmt.Sprintf("article too short: %d words, at least %d required for a %d word target", e.Actual, e.Required, e.Target)
	default:
		msg = string(e.Condition)
	}

	msg = fmt.Sprintf("article failed verification after %d attempts: %s", e.Attempts, msg)
	if others := e.otherConditions(); len(others) > 0 {
		msg += " (also unmet: " + strings.Join(others, ", ") + ")"
	}
	return msg
}

func (e *VerificationError) otherConditions() []string {
	var out []string
	for _, c := range e.Unmet {
		if c != e.Condition {
			out = append(out, string(c))
		}
	}
	return out
}

func sourceRef(s types.Source) string {
	if s.Title == "" {
		return s.URL
	}
	return fmt.Sprintf("%s (%s)", s.Title, s.URL)
}
