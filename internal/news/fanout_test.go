package news

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/content-studio/internal/types"
)

// fakeProvider answers from a map keyed by query text.
type fakeProvider struct {
	name    string
	results map[string][]types.RawArticle
	errs    map[string]error
	delay   time.Duration

	mu    sync.Mutex
	calls []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, q Query) ([]types.RawArticle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q.Text)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.errs[q.Text]; ok {
		return nil, err
	}
	return f.results[q.Text], nil
}

func article(title, url, source string) types.RawArticle {
	return types.RawArticle{Title: title, URL: url, SourceName: source}
}

func TestFetch_KeepsQueryProviderOrder(t *testing.T) {
	slow := &fakeProvider{
		name:  "slow",
		delay: 20 * time.Millisecond,
		results: map[string][]types.RawArticle{
			"a": {article("slow a", "https://slow.com/a", "Slow")},
			"b": {article("slow b", "https://slow.com/b", "Slow")},
		},
	}
	fast := &fakeProvider{
		name: "fast",
		results: map[string][]types.RawArticle{
			"a": {article("fast a", "https://fast.com/a", "Fast")},
			"b": {article("fast b", "https://fast.com/b", "Fast")},
		},
	}

	result := Fetch(context.Background(), []Provider{slow, fast}, []Query{{Text: "a"}, {Text: "b"}}, 4, zerolog.Nop())

	assert.Equal(t, 4, result.Attempted)
	assert.Equal(t, 4, result.Succeeded)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Articles, 4)
	titles := []string{result.Articles[0].Title, result.Articles[1].Title, result.Articles[2].Title, result.Articles[3].Title}
	assert.Equal(t, []string{"slow a", "fast a", "slow b", "fast b"}, titles)
}

func TestFetch_PartialFailure(t *testing.T) {
	boom := &UpstreamError{Provider: "flaky", StatusCode: 500, Message: "boom"}
	flaky := &fakeProvider{
		name: "flaky",
		errs: map[string]error{"a": boom},
		results: map[string][]types.RawArticle{
			"b": {article("flaky b", "https://flaky.com/b", "Flaky")},
		},
	}
	ok := &fakeProvider{
		name: "ok",
		results: map[string][]types.RawArticle{
			"a": {article("ok a", "https://ok.com/a", "OK")},
		},
	}

	result := Fetch(context.Background(), []Provider{flaky, ok}, []Query{{Text: "a"}, {Text: "b"}}, 1, zerolog.Nop())

	assert.Equal(t, 4, result.Attempted)
	assert.Equal(t, 3, result.Succeeded)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, types.QueryError{Query: "a", Provider: "flaky", Message: boom.Error()}, result.Errors[0])
	assert.Same(t, boom, result.FirstError)
	assert.Len(t, result.Articles, 2)
}

func TestFetch_SkipsUnsupported(t *testing.T) {
	picky := &fakeProvider{name: "picky", errs: map[string]error{"": ErrUnsupportedQuery}}
	open := &fakeProvider{name: "open", results: map[string][]types.RawArticle{"": {article("top", "https://top.com", "Top")}}}

	result := Fetch(context.Background(), []Provider{picky, open}, []Query{{Category: "business"}}, 0, zerolog.Nop())

	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Succeeded)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Articles, 1)
}

type countingProvider struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) Search(ctx context.Context, q Query) ([]types.RawArticle, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return nil, nil
}

func TestFetch_BoundsConcurrency(t *testing.T) {
	provider := &countingProvider{}
	queries := make([]Query, 12)
	for i := range queries {
		queries[i] = Query{Text: string(rune('a' + i))}
	}

	result := Fetch(context.Background(), []Provider{provider}, queries, 3, zerolog.Nop())

	assert.Equal(t, 12, result.Succeeded)
	assert.LessOrEqual(t, provider.peak.Load(), int32(3))
}

func TestFetch_FailureDoesNotCancelOthers(t *testing.T) {
	failing := &fakeProvider{name: "failing", errs: map[string]error{"a": errors.New("down")}}
	slow := &fakeProvider{
		name:    "slow",
		delay:   20 * time.Millisecond,
		results: map[string][]types.RawArticle{"a": {article("slow a", "https://slow.com/a", "Slow")}},
	}

	result := Fetch(context.Background(), []Provider{failing, slow}, []Query{{Text: "a"}}, 2, zerolog.Nop())

	assert.Equal(t, 1, result.Succeeded)
	assert.Len(t, result.Articles, 1)
}
