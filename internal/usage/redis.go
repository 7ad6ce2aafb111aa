package usage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// KeyPrefix namespaces the estimate keys.
const KeyPrefix = "content-studio:usage:"

// DefaultTTL expires estimates that have not been refreshed.
const DefaultTTL = 7 * 24 * time.Hour

// RedisStore shares estimates between instances. Redis failures are logged and treated
// as a missing estimate.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore parses a redis:// URL and creates the store. The connection is checked
// with a PING.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration, logger zerolog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStoreWithClient(client, ttl, logger), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl, logger: logger}
}

// Key returns the redis key of an article type.
func Key(articleType string) string {
	return KeyPrefix + articleType
}

// Estimate returns the stored estimate for articleType.
func (s *RedisStore) Estimate(ctx context.Context, articleType string) (int, bool) {
	v, ok, err := s.load(ctx, articleType)
	if err != nil {
		s.logger.Warn().Err(err).Str("article_type", articleType).Msg("usage estimate lookup failed")
		return 0, false
	}
	if !ok {
		return 0, false
	}
	return int(math.Round(v)), true
}

// Record folds tokens into the stored estimate. Concurrent writers may overwrite each
// other; the estimate is a hint.
func (s *RedisStore) Record(ctx context.Context, articleType string, tokens int) {
	if tokens <= 0 {
		return
	}
	prev, ok, err := s.load(ctx, articleType)
	if err != nil {
		s.logger.Warn().Err(err).Str("article_type", articleType).Msg("usage estimate lookup failed")
		return
	}

	next := blend(prev, ok, tokens)
	value := strconv.FormatFloat(next, 'f', 2, 64)
	if err := s.client.Set(ctx, Key(articleType), value, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("article_type", articleType).Msg("usage estimate write failed")
	}
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) load(ctx context.Context, articleType string) (float64, bool, error) {
	raw, err := s.client.Get(ctx, Key(articleType)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt usage estimate %q: %w", raw, err)
	}
	return v, true, nil
}
