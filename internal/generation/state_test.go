package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		passed  bool
		retried bool
		want    Step
	}{
		{name: "draft goes to citations", state: StateDraft, want: Step{Next: StateCheckCitations}},
		{name: "draft ignores passed", state: StateDraft, passed: true, retried: true, want: Step{Next: StateCheckCitations}},
		{name: "citations pass", state: StateCheckCitations, passed: true, want: Step{Next: StateCheckLinkCount}},
		{name: "link count pass", state: StateCheckLinkCount, passed: true, want: Step{Next: StateCheckLinkClustering}},
		{name: "clustering pass", state: StateCheckLinkClustering, passed: true, want: Step{Next: StateCheckWordCount}},
		{name: "word count pass", state: StateCheckWordCount, passed: true, want: Step{Next: StateDone}},
		{name: "citations fail first time", state: StateCheckCitations, want: Step{Next: StateDraft, Retry: true}},
		{name: "link count fail first time", state: StateCheckLinkCount, want: Step{Next: StateDraft, Retry: true}},
		{name: "clustering fail first time", state: StateCheckLinkClustering, want: Step{Next: StateDraft, Retry: true}},
		{name: "word count fail first time", state: StateCheckWordCount, want: Step{Next: StateDraft, Retry: true}},
		{name: "citations fail after retry", state: StateCheckCitations, retried: true, want: Step{Next: StateFailed}},
		{name: "word count fail after retry", state: StateCheckWordCount, retried: true, want: Step{Next: StateFailed}},
		{name: "pass after retry", state: StateCheckLinkCount, passed: true, retried: true, want: Step{Next: StateCheckLinkClustering}},
		{name: "done is terminal", state: StateDone, want: Step{Next: StateDone}},
		{name: "failed is terminal", state: StateFailed, passed: true, want: Step{Next: StateFailed}},
		{name: "unknown state fails", state: State(42), want: Step{Next: StateFailed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.state, tt.passed, tt.retried))
		})
	}
}

func TestTransition_EachCheckRetriesOnce(t *testing.T) {
	retried := map[State]bool{}
	state := StateDraft
	drafts := 0

	// Every check fails on every draft: the first check retries once and then fails.
	for !state.Terminal() {
		if state == StateDraft {
			drafts++
			state = Transition(state, true, false).Next
			continue
		}
		step := Transition(state, false, retried[state])
		if step.Retry {
			retried[state] = true
		}
		if step.Next == StateFailed {
			assert.Equal(t, StateCheckCitations, state)
		}
		state = step.Next
	}

	assert.Equal(t, StateFailed, state)
	assert.Equal(t, 2, drafts)
}

func TestState_Strings(t *testing.T) {
	assert.Equal(t, "check_link_clustering", StateCheckLinkClustering.String())
	assert.Equal(t, ConditionWordCount, StateCheckWordCount.Condition())
	assert.Equal(t, Condition(""), StateDraft.Condition())
	assert.True(t, StateCheckCitations.IsCheck())
	assert.False(t, StateDone.IsCheck())
}
