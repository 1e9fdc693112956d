package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/seoscope/seoscope/internal/logger"
)

// TransientStore holds short-lived values: fetched page copies and
// diagnostic detail written alongside rule runs.
type TransientStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// MemoryTransientStore is the default in-process TransientStore.
type MemoryTransientStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// NewMemoryTransientStore creates an empty in-process store.
func NewMemoryTransientStore() *MemoryTransientStore {
	return &MemoryTransientStore{entries: make(map[string]memoryEntry)}
}

// Get returns the stored value if present and not expired.
func (s *MemoryTransientStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || time.Now().After(e.expires) {
		delete(s.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores a value with the given TTL.
func (s *MemoryTransientStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expires: time.Now().Add(ttl)}
	return nil
}

// RedisTransientStore backs transients with Redis so a batch run spread
// across processes shares one content-fetch cache.
type RedisTransientStore struct {
	client *redis.Client
}

// NewRedisTransientStore wraps an existing Redis client.
func NewRedisTransientStore(client *redis.Client) *RedisTransientStore {
	return &RedisTransientStore{client: client}
}

// Get returns the stored value if present.
func (s *RedisTransientStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores a value with the given TTL.
func (s *RedisTransientStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// EncodeTransient serializes arbitrary diagnostic detail for a
// TransientStore. Values that cannot marshal are stored as their fmt
// rendering rather than dropped.
func EncodeTransient(value any) string {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}

// FetchCache fetches page HTML by URL, collapsing concurrent duplicate
// fetches and memoizing bodies for the process lifetime. One batch run
// reuses fetched pages across posts; fresh processes start cold.
type FetchCache struct {
	client *http.Client
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]string
	order   []string
}

// NewFetchCache creates a cache around the given HTTP client. A nil client
// gets a default with a conservative timeout.
func NewFetchCache(client *http.Client) *FetchCache {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &FetchCache{client: client, entries: make(map[string]string)}
}

// Get returns the HTML body for url, fetching it on a cold cache.
func (c *FetchCache) Get(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	if body, ok := c.entries[url]; ok {
		c.mu.Unlock()
		return body, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(url, func() (any, error) {
		body, err := c.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[url] = body
		c.order = append(c.order, url)
		c.mu.Unlock()
		return body, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Cached returns the memoized body for url without fetching.
func (c *FetchCache) Cached(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.entries[url]
	return body, ok
}

// Consumed lists the URLs fetched so far, in first-fetch order.
func (c *FetchCache) Consumed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *FetchCache) fetch(ctx context.Context, url string) (string, error) {
	logger.FromContext(ctx).Debug("fetching page", slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	return string(body), nil
}
