package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"tokend/internal/ident"
	"tokend/internal/types"
)

const cacheKeyNameTemplate = "_tokend_%s_%s"

// EntityCache implements ports.EntityCache on Redis. Entries carry no
// TTL: eviction is owned by the Redis instance's own policy (LRU or
// similar), and the orchestrator invalidates explicitly on writes.
type EntityCache struct {
	cli *redis.Client
}

type cacheItem struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	ExpiresAt int64  `json:"expires_at"`
}

func NewEntityCache(cli *redis.Client) *EntityCache {
	return &EntityCache{cli: cli}
}

func (c *EntityCache) Get(ctx context.Context, namespace, key string) (*types.TokenRecord, error) {
	out := c.cli.Get(ctx, cacheKey(namespace, key))
	if out.Err() != nil {
		if errors.Is(out.Err(), redis.Nil) {
			return nil, nil
		}
		return nil, out.Err()
	}
	var item cacheItem
	if err := json.Unmarshal([]byte(out.Val()), &item); err != nil {
		return nil, fmt.Errorf("invalid cache entry: %w", err)
	}
	id, err := ident.Parse(item.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid cache entry: %w", err)
	}
	return &types.TokenRecord{
		ID:        id,
		Owner:     item.Owner,
		ExpiresAt: time.Unix(item.ExpiresAt, 0).UTC(),
	}, nil
}

func (c *EntityCache) Set(ctx context.Context, namespace, key string, rec types.TokenRecord) error {
	b, err := json.Marshal(cacheItem{
		ID:        rec.ID.String(),
		Owner:     rec.Owner,
		ExpiresAt: rec.ExpiresAt.Unix(),
	})
	if err != nil {
		return err
	}
	return c.cli.Set(ctx, cacheKey(namespace, key), string(b), 0).Err()
}

func (c *EntityCache) Invalidate(ctx context.Context, namespace, key string) error {
	return c.cli.Del(ctx, cacheKey(namespace, key)).Err()
}

func cacheKey(namespace, key string) string {
	return fmt.Sprintf(cacheKeyNameTemplate, namespace, key)
}
