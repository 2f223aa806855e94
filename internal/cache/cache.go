package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobsift/jobsift/internal/model"
)

// Cache is a Redis-backed store for raw fetch results, keyed per source,
// query and location. Scheduled runs always hit the providers; manual
// triggers consult the cache first so repeated admin clicks don't burn
// provider quota.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at the given URL (redis://host:port) and verifies
// the connection with a ping.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Get returns cached postings for the given source/query/location and true
// when a valid entry exists.
func (c *Cache) Get(ctx context.Context, source model.Source, query, location string) ([]model.Posting, bool) {
	data, err := c.client.Get(ctx, buildKey(source, query, location)).Bytes()
	if err != nil {
		return nil, false
	}

	var postings []model.Posting
	if err := json.Unmarshal(data, &postings); err != nil {
		return nil, false
	}
	return postings, true
}

// Set stores postings with the configured TTL.
func (c *Cache) Set(ctx context.Context, source model.Source, query, location string, postings []model.Posting) error {
	data, err := json.Marshal(postings)
	if err != nil {
		return fmt.Errorf("cache: marshal error: %w", err)
	}
	return c.client.Set(ctx, buildKey(source, query, location), data, c.ttl).Err()
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func buildKey(source model.Source, query, location string) string {
	raw := strings.ToLower(string(source) + ":" + query + ":" + location)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("jobsift:%s:%x", source, hash[:8])
}
