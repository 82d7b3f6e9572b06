package ports

import (
	"context"

	"tokend/internal/types"
)

// EntityCache is a best-effort key-value front for token records,
// namespaced by entity kind so one cache can host several kinds without
// collision. Entries have no TTL of their own: they live until
// explicitly invalidated or evicted by the cache's own policy.
// Get/Set/Invalidate are independently atomic; concurrent Set/Invalidate
// on the same key is last-write-wins.
type EntityCache interface {
	// Get returns the cached record, or nil when the key is absent.
	Get(ctx context.Context, namespace, key string) (*types.TokenRecord, error)

	// Set stores the record under the namespaced key, replacing any
	// previous value.
	Set(ctx context.Context, namespace, key string, rec types.TokenRecord) error

	// Invalidate removes the namespaced key. Removing an absent key is
	// not an error.
	Invalidate(ctx context.Context, namespace, key string) error
}
