// Package rediscache provides a Redis-backed search cache for deployments
// that share results across processes.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tripforge/tripforge/internal/domain/provider"
	"github.com/tripforge/tripforge/internal/domain/travel"
)

// DefaultTTL keeps cached search results fresh enough that quoted prices
// have not drifted far.
const DefaultTTL = 5 * time.Minute

// keyPrefix namespaces cache keys in a shared Redis.
const keyPrefix = "tripforge:search:"

// cachedResult is the stored payload.
type cachedResult struct {
	Provider string         `json:"provider"`
	Offers   []travel.Offer `json:"offers"`
}

// SearchCache implements provider.SearchCache over Redis. Cache failures
// degrade to misses; a broken Redis never fails a search.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ provider.SearchCache = (*SearchCache)(nil)

// New creates a Redis search cache. TTL <= 0 falls back to DefaultTTL.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SearchCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SearchCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(key uint64) string {
	return keyPrefix + strconv.FormatUint(key, 16)
}

// Get returns the cached offers and producing provider for key.
func (c *SearchCache) Get(ctx context.Context, key uint64) ([]travel.Offer, string, bool) {
	data, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("search cache read failed", "error", err)
		}
		return nil, "", false
	}

	var result cachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("search cache entry malformed, discarding", "error", err)
		c.client.Del(ctx, cacheKey(key))
		return nil, "", false
	}
	return result.Offers, result.Provider, true
}

// Put stores a search result under key with the configured TTL.
func (c *SearchCache) Put(ctx context.Context, key uint64, providerName string, offers []travel.Offer) {
	data, err := json.Marshal(cachedResult{Provider: providerName, Offers: offers})
	if err != nil {
		c.logger.Warn("search cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(key), data, c.ttl).Err(); err != nil {
		c.logger.Warn("search cache write failed", "error", err)
	}
}

// Ping verifies connectivity, for startup checks.
func (c *SearchCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
