package review

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/content-studio/internal/llm"
	"github.com/jonathan/content-studio/internal/types"
)

type stubClient struct {
	text string
	err  error
	got  llm.Request
}

func (c *stubClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.got = req
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Response{Text: c.text}, nil
}

func (c *stubClient) ContextLimit(llm.ModelTier) int { return 8192 }
func (c *stubClient) Name() string                  { return "stub" }
func (c *stubClient) Close() error                  { return nil }

var reviewRequest = &types.ReviewRequest{
	Headlines: []types.ReviewHeadline{
		{Title: "Fed holds rates steady", Source: "Reuters", URL: "https://reuters.com/fed"},
		{Title: "You won't believe what the Fed did", Description: "Click here."},
	},
	Instructions: "Markets desk only.",
}

func TestReview(t *testing.T) {
	client := &stubClient{text: `{"reviews": [
		{"index": 1, "verdict": "drop", "score": 1, "reason": " Clickbait. "},
		{"index": 0, "verdict": "keep", "score": 8, "reason": "Core markets story."},
		{"index": 0, "verdict": "drop", "score": 0, "reason": "duplicate entry"},
		{"index": 5, "verdict": "keep", "score": 9, "reason": "unknown"}
	]}`}
	r := New(client, zerolog.Nop())

	resp, err := r.Review(context.Background(), reviewRequest)
	require.NoError(t, err)

	assert.True(t, client.got.JSON)
	assert.Equal(t, llm.TierLite, client.got.Tier)
	assert.Contains(t, client.got.System, "review candidate headlines")
	assert.Contains(t, client.got.Prompt, "Editor instructions: Markets desk only.")
	assert.Contains(t, client.got.Prompt, "0. Fed holds rates steady (Reuters)")

	assert.Equal(t, []types.HeadlineReview{
		{Index: 0, Title: "Fed holds rates steady", Verdict: VerdictKeep, Score: 8, Reason: "Core markets story."},
		{Index: 1, Title: "You won't believe what the Fed did", Verdict: VerdictDrop, Score: 1, Reason: "Clickbait."},
	}, resp.Reviews)
}

func TestReview_Incomplete(t *testing.T) {
	client := &stubClient{text: `{"reviews": [{"index": 0, "verdict": "keep", "score": 7, "reason": "ok"}]}`}

	_, err := New(client, zerolog.Nop()).Review(context.Background(), reviewRequest)

	var incomplete *IncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []int{1}, incomplete.Missing)
}

func TestReview_InvalidPayload(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "unknown verdict", text: `{"reviews": [{"index": 0, "verdict": "maybe", "score": 5, "reason": "x"}]}`},
		{name: "score out of range", text: `{"reviews": [{"index": 0, "verdict": "keep", "score": 11, "reason": "x"}]}`},
		{name: "not json", text: "I think both are fine."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&stubClient{text: tt.text}, zerolog.Nop()).Review(context.Background(), reviewRequest)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid headline reviews")
		})
	}
}

func TestReview_ClientError(t *testing.T) {
	cause := &llm.Error{Provider: "gemini", Message: "request failed"}
	_, err := New(&stubClient{err: cause}, zerolog.Nop()).Review(context.Background(), reviewRequest)
	assert.ErrorIs(t, err, cause)
}

func TestFormatHeadlines(t *testing.T) {
	out := FormatHeadlines(reviewRequest.Headlines)
	assert.Equal(t, "0. Fed holds rates steady (Reuters)\n   https://reuters.com/fed\n1. You won't believe what the Fed did\n   Click here.", out)
}
