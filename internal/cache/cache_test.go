package cache

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"qsmath/internal/config"
	"qsmath/pkg/plugin"
)

func TestGenerateKey(t *testing.T) {
	cache := &Cache{}

	tests := []struct {
		name     string
		source   string
		query    string
		expected bool // whether keys should be different
	}{
		{
			name:     "same plugin and query",
			source:   "builtin:math",
			query:    "2+2",
			expected: false,
		},
		{
			name:     "different query",
			source:   "builtin:math",
			query:    "2+3",
			expected: true,
		},
		{
			name:     "different plugin",
			source:   "/plugins/math.so/GetSearchable",
			query:    "2+2",
			expected: true,
		},
		{
			name:     "whitespace matters",
			source:   "builtin:math",
			query:    "2 + 2",
			expected: true,
		},
	}

	baseKey := cache.generateKey("builtin:math", "2+2")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := cache.generateKey(tt.source, tt.query)

			if tt.expected && key == baseKey {
				t.Error("expected different keys but got same")
			}
			if !tt.expected && key != baseKey {
				t.Error("expected same keys but got different")
			}
		})
	}
}

func TestGenerateKeyHidesQuery(t *testing.T) {
	cache := &Cache{}
	key := cache.generateKey("builtin:math", "secret stuff\r\n")

	if strings.Contains(key, "secret") {
		t.Errorf("query leaked into key: %s", key)
	}
	if !strings.HasPrefix(key, keyPrefix+"builtin:math:") {
		t.Errorf("unexpected key prefix: %s", key)
	}
}

func TestEntryEncoding(t *testing.T) {
	entry := &Entry{
		Results: []plugin.SearchResult{
			plugin.NewSearchResult("sqrt(4) = -2").WithExtraInfo("-2"),
			plugin.NewSearchResult("sqrt(4) = 2").WithExtraInfo("2"),
		},
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if len(decoded.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(decoded.Results))
	}
	if decoded.Results[0] != entry.Results[0] || decoded.Results[1] != entry.Results[1] {
		t.Errorf("results changed in encoding: %+v", decoded.Results)
	}
	if !decoded.Timestamp.Equal(entry.Timestamp) {
		t.Errorf("expected timestamp %v, got %v", entry.Timestamp, decoded.Timestamp)
	}
}

func TestNewUnreachable(t *testing.T) {
	_, err := New(config.RedisConfig{Addr: "127.0.0.1:1"}, time.Minute)
	if err == nil {
		t.Error("expected error connecting to a closed port")
	}
}

// Integration test with Redis (requires Redis to be running)
func TestCacheIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	redisConfig := config.RedisConfig{
		Addr:     "localhost:6379",
		Password: "",
		DB:       1, // Use a different DB for testing
	}

	cache, err := New(redisConfig, time.Minute)
	if err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	defer cache.Close()

	ctx := context.Background()

	// Clean up test data
	defer cache.client.FlushDB(ctx)

	if got := cache.Get(ctx, "builtin:math", "2+2"); got != nil {
		t.Fatalf("expected miss, got %+v", got)
	}

	entry := &Entry{
		Results:   []plugin.SearchResult{plugin.NewSearchResult("2 + 2 = 4").WithExtraInfo("4")},
		Timestamp: time.Now(),
	}

	if err := cache.Set(ctx, "builtin:math", "2+2", entry); err != nil {
		t.Fatalf("failed to set cache entry: %v", err)
	}

	retrieved := cache.Get(ctx, "builtin:math", "2+2")
	if retrieved == nil {
		t.Fatal("failed to retrieve cache entry")
	}
	if len(retrieved.Results) != 1 || retrieved.Results[0] != entry.Results[0] {
		t.Errorf("expected %+v, got %+v", entry.Results, retrieved.Results)
	}

	ttl := cache.client.TTL(ctx, cache.generateKey("builtin:math", "2+2")).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected TTL within a minute, got %v", ttl)
	}
}
