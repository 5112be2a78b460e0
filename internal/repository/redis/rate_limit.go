package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore implements a sliding window counter on Redis sorted sets.
// Each attempt is a member scored by its unix-nano timestamp, so counting
// a window is a ZCOUNT and trimming is a ZREMRANGEBYSCORE.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
	keyTTL time.Duration
}

// NewRateLimitStore builds a store. keyTTL bounds how long idle keys linger.
func NewRateLimitStore(client *goredis.Client, prefix string, keyTTL time.Duration) *RateLimitStore {
	if prefix == "" {
		prefix = "authline:rate-limit"
	}
	if keyTTL <= 0 {
		keyTTL = time.Hour
	}
	return &RateLimitStore{
		client: client,
		prefix: prefix,
		keyTTL: keyTTL,
	}
}

func (s *RateLimitStore) key(identifier string) string {
	return fmt.Sprintf("%s:%s", s.prefix, identifier)
}

// RecordAttempt appends an attempt for the identifier at the given instant.
func (s *RateLimitStore) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := s.key(identifier)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, goredis.Z{
		Score:  float64(at.UnixNano()),
		Member: uuid.NewString(),
	})
	pipe.Expire(ctx, key, s.keyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record attempt for %s: %w", key, err)
	}

	return nil
}

// CountAttempts returns the number of attempts inside the window ending at reference.
func (s *RateLimitStore) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	key := s.key(identifier)
	min := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	max := strconv.FormatInt(reference.UnixNano(), 10)

	count, err := s.client.ZCount(ctx, key, min, max).Result()
	if err != nil {
		return 0, fmt.Errorf("count attempts for %s: %w", key, err)
	}

	return int(count), nil
}

// TrimWindow drops attempts that fell out of the window ending at reference.
func (s *RateLimitStore) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	key := s.key(identifier)
	max := strconv.FormatInt(reference.Add(-window).UnixNano()-1, 10)

	if err := s.client.ZRemRangeByScore(ctx, key, "-inf", max).Err(); err != nil {
		return fmt.Errorf("trim window for %s: %w", key, err)
	}

	return nil
}

// OldestAttempt returns the earliest attempt still inside the window.
// The bool reports whether any attempt exists.
func (s *RateLimitStore) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	key := s.key(identifier)
	min := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	max := strconv.FormatInt(reference.UnixNano(), 10)

	entries, err := s.client.ZRangeByScoreWithScores(ctx, key, &goredis.ZRangeBy{
		Min:    min,
		Max:    max,
		Offset: 0,
		Count:  1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("oldest attempt for %s: %w", key, err)
	}
	if len(entries) == 0 {
		return time.Time{}, false, nil
	}

	return time.Unix(0, int64(entries[0].Score)).UTC(), true, nil
}
