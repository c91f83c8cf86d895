package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/ArkinSolomon/xpkg-core/pkg/objectstore"
)

// Cache persists the latest snapshot to Redis (the read path's primary
// source) and mirrors it to object storage for a CDN/static fallback
// (SPEC_FULL §4.8).
type Cache struct {
	redis   *redis.Client
	objects objectstore.Store
}

// NewCache builds a catalog Cache.
func NewCache(rdb *redis.Client, objects objectstore.Store) *Cache {
	return &Cache{redis: rdb, objects: objects}
}

// Write serializes snap and stores it under RedisKey (no TTL, always
// overwritten on the next rebuild tick) and ObjectKey.
func (c *Cache) Write(ctx context.Context, snap Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling catalog snapshot: %w", err)
	}

	if err := c.redis.Set(ctx, RedisKey, body, 0).Err(); err != nil {
		return fmt.Errorf("caching catalog snapshot in redis: %w", err)
	}
	if err := c.objects.Put(ctx, ObjectKey, bytes.NewReader(body), "application/json"); err != nil {
		return fmt.Errorf("mirroring catalog snapshot to object storage: %w", err)
	}
	return nil
}

// Read returns the raw cached snapshot bytes, preferring Redis and falling
// back to object storage if Redis misses (e.g. after a cache flush).
func (c *Cache) Read(ctx context.Context) ([]byte, error) {
	body, err := c.redis.Get(ctx, RedisKey).Bytes()
	if err == nil {
		return body, nil
	}
	if err != redis.Nil {
		return nil, fmt.Errorf("reading catalog snapshot from redis: %w", err)
	}

	r, err := c.objects.Get(ctx, ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("reading catalog snapshot from object storage: %w", err)
	}
	defer r.Close()

	return io.ReadAll(r)
}
