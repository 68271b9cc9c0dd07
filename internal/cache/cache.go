// Package cache stores plugin search results in Redis so repeated queries
// skip plugin evaluation. A cache failure is never fatal to a search: reads
// degrade to misses and write errors are returned for the caller to log.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"qsmath/internal/config"
	"qsmath/pkg/plugin"
)

const keyPrefix = "qsmath:results:"

type Entry struct {
	Results   []plugin.SearchResult `json:"results"`
	Timestamp time.Time             `json:"timestamp"`
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(cfg config.RedisConfig, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Get returns the cached entry for a query against the plugin loaded from
// source, or nil on a miss or any error.
func (c *Cache) Get(ctx context.Context, source, query string) *Entry {
	key := c.generateKey(source, query)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("Failed to read cache entry", "key", key, "error", err)
		}
		return nil
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Error("Failed to decode cache entry", "key", key, "error", err)
		return nil
	}

	return &entry
}

func (c *Cache) Set(ctx context.Context, source, query string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	key := c.generateKey(source, query)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// generateKey hashes the query so arbitrary user text never ends up in a
// Redis key.
func (c *Cache) generateKey(source, query string) string {
	sum := sha256.Sum256([]byte(query))
	return keyPrefix + source + ":" + hex.EncodeToString(sum[:])
}
