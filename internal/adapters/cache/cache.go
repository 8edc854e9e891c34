// Package cache holds short-lived copies of upstream responses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache stores opaque values with a time to live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON decodes a cached JSON value into dest.
func GetJSON(ctx context.Context, c Cache, key string, dest any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value as JSON and caches it.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// PlayersKey is the cache key of an upstream player list.
func PlayersKey(season int, position string, onTeamOnly bool) string {
	return fmt.Sprintf("players:%d:%s:%t", season, position, onTeamOnly)
}

// ADPKey is the cache key of a season's ADP feed.
func ADPKey(season int) string {
	return fmt.Sprintf("adp:%d", season)
}

// FavoritesKey is the cache key of the favorites list.
const FavoritesKey = "favorites"
