package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/overlap-core/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestPageCacheSetGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewPageCache(client, time.Hour)
	ctx := context.Background()

	url := "https://example.com/article"
	if err := cache.Set(ctx, url, "extracted article text"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	text, err := cache.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if text != "extracted article text" {
		t.Errorf("unexpected cached text %q", text)
	}
}

func TestPageCacheMiss(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewPageCache(client, time.Hour)

	_, err := cache.Get(context.Background(), "https://example.com/unknown")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPageCacheExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewPageCache(client, time.Minute)
	ctx := context.Background()

	url := "https://example.com/article"
	if err := cache.Set(ctx, url, "text"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, url)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestPageCacheLastWriteWins(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewPageCache(client, time.Hour)
	ctx := context.Background()

	url := "https://example.com/article"
	cache.Set(ctx, url, "first")
	cache.Set(ctx, url, "second")

	text, err := cache.Get(ctx, url)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if text != "second" {
		t.Errorf("expected last write to win, got %q", text)
	}
}
