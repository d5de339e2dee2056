package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
	"github.com/custodia-labs/overlap-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VideoCache = (*VideoCache)(nil)

const videoKeyPrefix = "overlap:video:"

// VideoCache caches processed transcript chunks and embeddings per
// video, so repeat checks skip transcript fetch and embedding.
type VideoCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVideoCache creates a video cache with the given TTL
func NewVideoCache(client *redis.Client, ttl time.Duration) *VideoCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &VideoCache{client: client, ttl: ttl}
}

// Get returns the cached video state or domain.ErrNotFound
func (c *VideoCache) Get(ctx context.Context, videoID string) (*driven.CachedVideo, error) {
	data, err := c.client.Get(ctx, videoKeyPrefix+videoID).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached video: %w", err)
	}

	var video driven.CachedVideo
	if err := json.Unmarshal(data, &video); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached video: %w", err)
	}
	return &video, nil
}

// Set stores the video state with the configured TTL
func (c *VideoCache) Set(ctx context.Context, video *driven.CachedVideo) error {
	data, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("failed to marshal video: %w", err)
	}
	if err := c.client.Set(ctx, videoKeyPrefix+video.VideoID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache video: %w", err)
	}
	return nil
}
