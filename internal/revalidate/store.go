package revalidate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StaleKey = "pages:stale"
	Channel  = "pages:revalidate"
)

// RedisStore records stale page paths in a hash keyed by path, with the time
// they went stale, and announces each path on a pub/sub channel.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) MarkStale(ctx context.Context, paths []string, at time.Time) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, path := range paths {
			pipe.HSet(ctx, StaleKey, path, at.UnixMilli())
			pipe.Publish(ctx, Channel, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark pages stale: %w", err)
	}
	return nil
}

// StalePaths returns every stale path with the time it was marked.
func (s *RedisStore) StalePaths(ctx context.Context) (map[string]time.Time, error) {
	raw, err := s.rdb.HGetAll(ctx, StaleKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stale pages: %w", err)
	}

	paths := make(map[string]time.Time, len(raw))
	for path, v := range raw {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		paths[path] = time.UnixMilli(ms).UTC()
	}
	return paths, nil
}

// Clear forgets paths once their pages have been rebuilt.
func (s *RedisStore) Clear(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := s.rdb.HDel(ctx, StaleKey, paths...).Err(); err != nil {
		return fmt.Errorf("failed to clear stale pages: %w", err)
	}
	return nil
}
