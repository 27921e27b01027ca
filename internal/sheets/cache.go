package sheets

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"fortidash/internal/metrics"
)

// Cache holds recently fetched sheet tables so repeated report builds
// within a short window do not hammer the Sheets API.
type Cache interface {
	Get(ctx context.Context, sheet string) (metrics.Table, bool)
	Set(ctx context.Context, sheet string, table metrics.Table)
}

type redisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (c *redisCache) Get(ctx context.Context, sheet string) (metrics.Table, bool) {
	data, err := c.client.Get(ctx, c.prefix+":"+sheet).Bytes()
	if err != nil {
		return metrics.Table{}, false
	}
	var table metrics.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return metrics.Table{}, false
	}
	return table, true
}

func (c *redisCache) Set(ctx context.Context, sheet string, table metrics.Table) {
	data, err := json.Marshal(table)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+":"+sheet, data, c.ttl).Err()
}

type memoryCache struct {
	mu  sync.Mutex
	ttl time.Duration

	entries map[string]memoryEntry
}

type memoryEntry struct {
	table   metrics.Table
	expires time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *memoryCache) Get(_ context.Context, sheet string) (metrics.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[sheet]
	if !ok || time.Now().After(entry.expires) {
		delete(c.entries, sheet)
		return metrics.Table{}, false
	}
	return entry.table, true
}

func (c *memoryCache) Set(_ context.Context, sheet string, table metrics.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sheet] = memoryEntry{table: table, expires: time.Now().Add(c.ttl)}
}

// NewCache builds a Redis-backed cache and falls back to in-memory
// when Redis is unreachable or unconfigured. The returned error is
// advisory; the cache is always usable.
func NewCache(addr, pass string, db int, ttl time.Duration) (Cache, error) {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if addr == "" {
		return newMemoryCache(ttl), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryCache(ttl), err
	}

	return &redisCache{
		client: client,
		prefix: "sheets:table",
		ttl:    ttl,
	}, nil
}
