package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jordanhubbard/strata/internal/learner"
	"github.com/jordanhubbard/strata/pkg/models"
)

// Config defines cache configuration
type Config struct {
	Addr     string        `json:"addr"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"` // Time-to-live for cached entries
}

// DefaultConfig returns sensible defaults for caching
func DefaultConfig() *Config {
	return &Config{
		Addr: "localhost:6379",
		TTL:  10 * time.Minute,
	}
}

// Cache keeps per-strategy scorecards and the latest metrics snapshot in
// Redis so read-side collaborators (dashboards, the operator CLI) don't
// need a path into the orchestrator process.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg *Config) (*Cache, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return &Cache{client: client, ttl: cfg.TTL}, nil
}

// Close releases the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping verifies the Redis connection is still alive.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ScorecardKey builds the Redis key for a strategy scorecard.
func ScorecardKey(mode models.Mode, strategyID string) string {
	return fmt.Sprintf("strata:%s:scorecard:%s", mode, strategyID)
}

// SnapshotKey builds the Redis key for a mode's metrics snapshot.
func SnapshotKey(mode models.Mode) string {
	return fmt.Sprintf("strata:%s:snapshot", mode)
}

// SetScorecard stores a strategy's scorecard with the configured TTL.
func (c *Cache) SetScorecard(ctx context.Context, mode models.Mode, strategyID string, scorecard map[string]float64) error {
	data, err := json.Marshal(scorecard)
	if err != nil {
		return fmt.Errorf("failed to marshal scorecard: %w", err)
	}
	if err := c.client.Set(ctx, ScorecardKey(mode, strategyID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache scorecard for %s: %w", strategyID, err)
	}
	return nil
}

// GetScorecard fetches a strategy's scorecard. Returns (nil, nil) on miss.
func (c *Cache) GetScorecard(ctx context.Context, mode models.Mode, strategyID string) (map[string]float64, error) {
	data, err := c.client.Get(ctx, ScorecardKey(mode, strategyID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scorecard for %s: %w", strategyID, err)
	}
	var scorecard map[string]float64
	if err := json.Unmarshal(data, &scorecard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scorecard for %s: %w", strategyID, err)
	}
	return scorecard, nil
}

// SetSnapshot stores the latest orchestrator metrics snapshot.
func (c *Cache) SetSnapshot(ctx context.Context, mode models.Mode, snap learner.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, SnapshotKey(mode), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

// GetSnapshot fetches the latest metrics snapshot. Returns (nil, nil) on miss.
func (c *Cache) GetSnapshot(ctx context.Context, mode models.Mode) (*learner.Snapshot, error) {
	data, err := c.client.Get(ctx, SnapshotKey(mode)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap learner.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// InvalidateStrategy drops a strategy's cached scorecard.
func (c *Cache) InvalidateStrategy(ctx context.Context, mode models.Mode, strategyID string) error {
	return c.client.Del(ctx, ScorecardKey(mode, strategyID)).Err()
}
