// Package redis provides Redis-backed caches for fetched pages and
// processed video transcripts.
package redis

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PageCache = (*PageCache)(nil)

const pageKeyPrefix = "overlap:page:"

// PageCache caches extracted page text keyed by the URL hash
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a page cache with the given TTL
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PageCache{client: client, ttl: ttl}
}

func pageKey(url string) string {
	sum := md5.Sum([]byte(url))
	return pageKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached page text or domain.ErrNotFound
func (c *PageCache) Get(ctx context.Context, url string) (string, error) {
	text, err := c.client.Get(ctx, pageKey(url)).Result()
	if err == redis.Nil {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cached page: %w", err)
	}
	return text, nil
}

// Set stores the page text with the configured TTL
func (c *PageCache) Set(ctx context.Context, url, text string) error {
	if err := c.client.Set(ctx, pageKey(url), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}
