package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/puros/internal/domain"
)

const followStatsPrefix = "puros:follow_stats:"

// FollowStatsCache implements repository.FollowStatsCache using Redis.
type FollowStatsCache struct {
	client redis.UniversalClient
}

// NewFollowStatsCache creates a Redis-backed follow stats cache.
func NewFollowStatsCache(client redis.UniversalClient) *FollowStatsCache {
	return &FollowStatsCache{client: client}
}

// Get returns cached stats for userID. A miss reports ok=false and no error.
func (c *FollowStatsCache) Get(ctx context.Context, userID string) (domain.FollowStats, bool, error) {
	data, err := c.client.Get(ctx, followStatsPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.FollowStats{}, false, nil
		}
		return domain.FollowStats{}, false, fmt.Errorf("redis get follow stats: %w", err)
	}

	var stats domain.FollowStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return domain.FollowStats{}, false, fmt.Errorf("unmarshal follow stats: %w", err)
	}
	return stats, true, nil
}

// Set stores stats for userID for ttl.
func (c *FollowStatsCache) Set(ctx context.Context, userID string, stats domain.FollowStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal follow stats: %w", err)
	}
	if err := c.client.Set(ctx, followStatsPrefix+userID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set follow stats: %w", err)
	}
	return nil
}

// Invalidate drops the cached stats of every given user.
func (c *FollowStatsCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = followStatsPrefix + id
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del follow stats: %w", err)
	}
	return nil
}
