package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const processedEventPrefix = "puros:processed_event:"

// IdempotencyStore implements kafka.IdempotencyStore using Redis so that
// every consumer instance shares the set of processed event IDs.
type IdempotencyStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewIdempotencyStore(client redis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, processedEventPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists processed event: %w", err)
	}
	return n > 0, nil
}

// Add marks eventID processed. An existing mark keeps its original expiry.
func (s *IdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.SetNX(ctx, processedEventPrefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx processed event: %w", err)
	}
	return nil
}

// Claim sets the mark with SETNX; only the caller that created it gets true.
func (s *IdempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, processedEventPrefix+key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx claim: %w", err)
	}
	return ok, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, processedEventPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del claim: %w", err)
	}
	return nil
}
