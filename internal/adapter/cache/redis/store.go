// Package redis implements the scoring result store on Redis, for
// deployments where cached results must be shared across replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hirelens/matchengine/internal/domain"
)

const keyPrefix = "match:result:"

// Store persists scoring results in Redis with per-key TTL.
type Store struct {
	client *redis.Client
}

// NewStore creates a store from a Redis URL such as redis://localhost:6379/0.
func NewStore(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Store{client: redis.NewClient(opts)}, nil
}

// NewStoreWithClient wraps an existing client; used by tests.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get returns the stored result for fingerprint, if any. Expiry is handled
// by Redis itself.
func (s *Store) Get(ctx context.Context, fingerprint string) (domain.ScoringResult, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ScoringResult{}, false, nil
	}
	if err != nil {
		return domain.ScoringResult{}, false, fmt.Errorf("redis get: %w", err)
	}

	var res domain.ScoringResult
	if err := json.Unmarshal(raw, &res); err != nil {
		// A corrupt entry is a miss, not a failure.
		return domain.ScoringResult{}, false, nil
	}
	return res, true, nil
}

// Set stores result under fingerprint with the given TTL.
func (s *Store) Set(ctx context.Context, fingerprint string, result domain.ScoringResult, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+fingerprint, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping verifies connectivity; used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
