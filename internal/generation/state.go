// Package generation drafts articles with an LLM and verifies them against the cited
// sources, link placement and length before they are returned.
package generation

// State is a step of the draft and verify loop.
type State int

const (
	StateDraft State = iota
	StateCheckCitations
	StateCheckLinkCount
	StateCheckLinkClustering
	StateCheckWordCount
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateCheckCitations:
		return "check_citations"
	case StateCheckLinkCount:
		return "check_link_count"
	case StateCheckLinkClustering:
		return "check_link_clustering"
	case StateCheckWordCount:
		return "check_word_count"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsCheck reports whether s verifies a draft.
func (s State) IsCheck() bool {
	return s >= StateCheckCitations && s <= StateCheckWordCount
}

// Terminal reports whether the loop stops at s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Step is the outcome of a transition.
type Step struct {
	Next State
	// Retry is set when the draft must be rewritten with an amended prompt before the
	// checks run again from the start.
	Retry bool
}

// Transition returns the step that follows state. passed is the result of the check run in
// state and is ignored for StateDraft. retried reports whether the check in state already
// used its single retry.
//
// A failed check with its retry unused goes back to StateDraft; every check then runs again
// on the new draft. A failed check whose retry is spent ends in StateFailed.
func Transition(state State, passed, retried bool) Step {
	switch {
	case state == StateDraft:
		return Step{Next: StateCheckCitations}
	case state.Terminal():
		return Step{Next: state}
	case !state.IsCheck():
		return Step{Next: StateFailed}
	case passed && state == StateCheckWordCount:
		return Step{Next: StateDone}
	case passed:
		return Step{Next: state + 1}
	case !retried:
		return Step{Next: StateDraft, Retry: true}
	default:
		return Step{Next: StateFailed}
	}
}

// Condition returns the verification condition checked in s, or "" for other states.
func (s State) Condition() Condition {
	switch s {
	case StateCheckCitations:
		return ConditionCitations
	case StateCheckLinkCount:
		return ConditionLinkCount
	case StateCheckLinkClustering:
		return ConditionLinkClustering
	case StateCheckWordCount:
		return ConditionWordCount
	default:
		return ""
	}
}
