package usage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_EstimateUnknown(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.Estimate(context.Background(), "news")
	assert.False(t, ok)
}

func TestMemoryStore_MovingAverage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	s.Record(ctx, "news", 1000)
	got, ok := s.Estimate(ctx, "news")
	require.True(t, ok)
	assert.Equal(t, 1000, got)

	s.Record(ctx, "news", 2000)
	got, _ = s.Estimate(ctx, "news")
	assert.Equal(t, 1300, got)

	// Other types are independent.
	_, ok = s.Estimate(ctx, "listicle")
	assert.False(t, ok)
}

func TestMemoryStore_IgnoresNonPositive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	s.Record(ctx, "news", 0)
	s.Record(ctx, "news", -5)
	_, ok := s.Estimate(ctx, "news")
	assert.False(t, ok)
}

func TestMemoryStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Record(ctx, "news", 500)
	s.Reset()

	_, ok := s.Estimate(ctx, "news")
	assert.False(t, ok)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Record(ctx, "news", 800)
			s.Estimate(ctx, "news")
		}()
	}
	wg.Wait()

	got, ok := s.Estimate(ctx, "news")
	require.True(t, ok)
	assert.Equal(t, 800, got)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "content-studio:usage:how-to", Key("how-to"))
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url", time.Minute, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis url")
}

func TestRedisStore_UnreachableIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := NewRedisStoreWithClient(client, 0, zerolog.Nop())
	defer s.Close()

	ctx := context.Background()
	s.Record(ctx, "news", 900)
	_, ok := s.Estimate(ctx, "news")
	assert.False(t, ok)
	assert.Equal(t, DefaultTTL, s.ttl)
}

func newMiniRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), ttl, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_RecordAndEstimate(t *testing.T) {
	s, mr := newMiniRedisStore(t, time.Hour)
	ctx := context.Background()

	_, ok := s.Estimate(ctx, "news:medium")
	assert.False(t, ok)

	s.Record(ctx, "news:medium", 1000)
	got, ok := s.Estimate(ctx, "news:medium")
	require.True(t, ok)
	assert.Equal(t, 1000, got)

	s.Record(ctx, "news:medium", 2000)
	got, ok = s.Estimate(ctx, "news:medium")
	require.True(t, ok)
	assert.Equal(t, 1300, got)

	stored, err := mr.Get(Key("news:medium"))
	require.NoError(t, err)
	assert.Equal(t, "1300.00", stored)
	assert.Equal(t, time.Hour, mr.TTL(Key("news:medium")))

	s.Record(ctx, "news:medium", 0)
	got, _ = s.Estimate(ctx, "news:medium")
	assert.Equal(t, 1300, got)
}

func TestRedisStore_ExpiredEstimateIsMiss(t *testing.T) {
	s, mr := newMiniRedisStore(t, time.Minute)
	ctx := context.Background()

	s.Record(ctx, "recipe", 3000)
	mr.FastForward(2 * time.Minute)

	_, ok := s.Estimate(ctx, "recipe")
	assert.False(t, ok)
}

func TestRedisStore_CorruptValueIsMiss(t *testing.T) {
	s, mr := newMiniRedisStore(t, time.Minute)
	require.NoError(t, mr.Set(Key("news"), "lots"))

	_, ok := s.Estimate(context.Background(), "news")
	assert.False(t, ok)
}

func TestStoresSatisfyInterface(t *testing.T) {
	var _ Store = NewMemoryStore()
	var _ Store = (*RedisStore)(nil)
}
