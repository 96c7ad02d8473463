// Package redis provides a Redis-based implementation of the active-alert store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vigil-go/internal/config"
	"vigil-go/internal/store"
)

// prefixActive namespaces active-alert keys in Redis.
const prefixActive = "active:"

// ActiveStore implements store.ActiveStore using Redis.
type ActiveStore struct {
	client *redis.Client
}

// NewActiveStore creates a new Redis-backed active-alert store.
func NewActiveStore(cfg *config.RedisConfig) (*ActiveStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &ActiveStore{client: client}, nil
}

// activeKey generates the Redis key for a rule's active entry.
func activeKey(ruleID string) string {
	return prefixActive + ruleID
}

// Get retrieves the active entry for a rule.
// Returns nil, nil if the rule has no firing alert.
func (s *ActiveStore) Get(ctx context.Context, ruleID string) (*store.ActiveAlert, error) {
	data, err := s.client.Get(ctx, activeKey(ruleID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active entry: %w", err)
	}

	var entry store.ActiveAlert
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active entry: %w", err)
	}

	return &entry, nil
}

// Set stores or replaces the active entry for entry.RuleID.
// No TTL - an active alert persists until explicitly resolved.
func (s *ActiveStore) Set(ctx context.Context, entry *store.ActiveAlert) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal active entry: %w", err)
	}

	if err := s.client.Set(ctx, activeKey(entry.RuleID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set active entry: %w", err)
	}

	return nil
}

// Delete removes the active entry for a rule.
func (s *ActiveStore) Delete(ctx context.Context, ruleID string) error {
	if err := s.client.Del(ctx, activeKey(ruleID)).Err(); err != nil {
		return fmt.Errorf("failed to delete active entry: %w", err)
	}
	return nil
}

// List returns all active entries.
func (s *ActiveStore) List(ctx context.Context) ([]*store.ActiveAlert, error) {
	var results []*store.ActiveAlert

	iter := s.client.Scan(ctx, 0, prefixActive+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Deleted between scan and get
				continue
			}
			return nil, fmt.Errorf("failed to get active entry: %w", err)
		}

		var entry store.ActiveAlert
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal active entry: %w", err)
		}
		results = append(results, &entry)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan active entries: %w", err)
	}

	return results, nil
}

// Close closes the Redis client connection.
func (s *ActiveStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
