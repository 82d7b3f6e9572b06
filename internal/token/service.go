// Package token implements the token lifecycle: issuing identifiers,
// serving lookups through a fronting cache, and enforcing expiration
// against the authoritative store.
package token

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"tokend/internal/ident"
	"tokend/internal/ports"
	"tokend/internal/types"
)

const (
	// CacheNamespace tags every cache entry written by this service.
	CacheNamespace = "tokeninfo"

	// DefaultLifetime applies when a create does not supply an
	// expiration instant.
	DefaultLifetime = 30 * 24 * time.Hour
)

// Input carries the caller-supplied fields of a create or update.
// ExpiresAt is present-or-absent; on update, absent fields leave the
// stored record untouched, and a blank Owner is likewise ignored.
type Input struct {
	Owner     string
	ExpiresAt *time.Time
}

// Service orchestrates reads and writes across the durable store and
// the cache. It is stateless and reentrant: every method is a short
// sequence of collaborator calls with no locking or background work.
// Consistency rules:
//   - reads consult the cache before the store and populate the cache
//     on a store hit;
//   - every write path invalidates the cache entry before mutating the
//     store, bounding the window in which a racing reader can observe
//     stale data;
//   - cache Set/Invalidate failures are logged and swallowed (the cache
//     is best-effort and must never fail a store mutation).
type Service struct {
	store ports.TokenStore
	cache ports.EntityCache
	clock ports.Clock
}

func NewService(store ports.TokenStore, cache ports.EntityCache, clock ports.Clock) *Service {
	return &Service{store: store, cache: cache, clock: clock}
}

// Get returns the live record for id.
// Returns types.ErrNotFound when no record exists, types.ErrExpired when
// the record has passed its expiration. An expired record found in the
// cache is evicted on the way out; an expired record in the store is
// left in place (removal is lazy and owned by the write paths).
func (s *Service) Get(ctx context.Context, id ident.ID) (types.TokenRecord, error) {
	now := s.clock.Now()
	key := id.String()

	cached, err := s.cache.Get(ctx, CacheNamespace, key)
	if err != nil {
		return types.TokenRecord{}, types.Err(types.ErrCacheAccess, err, "cache get %s", key)
	}
	if cached != nil {
		if cached.ExpiredAt(now) {
			s.invalidate(ctx, key)
			return types.TokenRecord{}, types.ErrExpired
		}
		// A cache hit is served as found; the store is authoritative and
		// never lags the cache, so no refresh in either direction.
		return *cached, nil
	}

	recs, err := s.store.Get(ctx, ports.Query{ID: id})
	if err != nil {
		return types.TokenRecord{}, types.Err(types.ErrStoreAccess, err, "store get %s", key)
	}
	if len(recs) == 0 {
		return types.TokenRecord{}, types.ErrNotFound
	}
	rec := recs[0]
	if rec.ExpiredAt(now) {
		return types.TokenRecord{}, types.ErrExpired
	}

	// Populate on read so future lookups skip the store. Best-effort:
	// a failed set only costs the next reader a store round trip.
	if err := s.cache.Set(ctx, CacheNamespace, key, rec); err != nil {
		log.WithError(err).WithField("id", key).Warn("cache set failed")
	}
	return rec, nil
}

// Create persists a new record with a freshly generated identifier.
// The cache is not pre-populated; the next Get does that.
func (s *Service) Create(ctx context.Context, in Input) (types.TokenRecord, error) {
	return s.createWithID(ctx, ident.New(), in)
}

// CreateOrUpdate creates the record when id is unknown, otherwise
// applies the supplied fields to the existing record. The created
// return distinguishes the two for transport mapping.
// No expiration check happens on the update path: updating an
// already-expired record revives it ("renew by updating").
func (s *Service) CreateOrUpdate(ctx context.Context, id ident.ID, in Input) (rec types.TokenRecord, created bool, err error) {
	key := id.String()
	recs, err := s.store.Get(ctx, ports.Query{ID: id})
	if err != nil {
		return types.TokenRecord{}, false, types.Err(types.ErrStoreAccess, err, "store get %s", key)
	}
	if len(recs) == 0 {
		rec, err = s.createWithID(ctx, id, in)
		return rec, err == nil, err
	}

	// Invalidate before mutating so no reader can re-cache the
	// pre-update state after the store commit lands.
	s.invalidate(ctx, key)

	rec = recs[0]
	if types.ValidOwner(in.Owner) {
		rec.Owner = in.Owner
	}
	if in.ExpiresAt != nil {
		rec.ExpiresAt = types.TruncateToSecond(*in.ExpiresAt)
	}
	if err := s.store.Update(ctx, rec); err != nil {
		return types.TokenRecord{}, false, types.Err(types.ErrStoreAccess, err, "store update %s", key)
	}
	if err := s.store.Commit(ctx); err != nil {
		return types.TokenRecord{}, false, types.Err(types.ErrStoreAccess, err, "store commit %s", key)
	}
	return rec, false, nil
}

// Delete removes the record for id from store and cache, returning the
// record as it stood at removal.
// Returns types.ErrNotFound, with no mutation anywhere, when the id is
// unknown. Expired records delete like live ones.
func (s *Service) Delete(ctx context.Context, id ident.ID) (types.TokenRecord, error) {
	key := id.String()
	recs, err := s.store.Get(ctx, ports.Query{ID: id})
	if err != nil {
		return types.TokenRecord{}, types.Err(types.ErrStoreAccess, err, "store get %s", key)
	}
	if len(recs) == 0 {
		return types.TokenRecord{}, types.ErrNotFound
	}

	s.invalidate(ctx, key)

	if err := s.store.Delete(ctx, recs[0]); err != nil {
		return types.TokenRecord{}, types.Err(types.ErrStoreAccess, err, "store delete %s", key)
	}
	if err := s.store.Commit(ctx); err != nil {
		return types.TokenRecord{}, types.Err(types.ErrStoreAccess, err, "store commit %s", key)
	}
	return recs[0], nil
}

// createWithID validates and persists a new record under the given id.
// Owner validation happens before any collaborator call, so a rejected
// create leaves no partial state.
func (s *Service) createWithID(ctx context.Context, id ident.ID, in Input) (types.TokenRecord, error) {
	if !types.ValidOwner(in.Owner) {
		return types.TokenRecord{}, types.ErrInvalidOwner
	}
	now := s.clock.Now()
	expires := types.TruncateToSecond(now.Add(DefaultLifetime))
	if in.ExpiresAt != nil {
		expires = types.TruncateToSecond(*in.ExpiresAt)
	}
	rec := types.TokenRecord{
		ID:        id,
		Owner:     in.Owner,
		ExpiresAt: expires,
	}
	if err := s.store.Add(ctx, rec); err != nil {
		return types.TokenRecord{}, types.Err(types.ErrStoreAccess, err, "store add %s", id)
	}
	if err := s.store.Commit(ctx); err != nil {
		return types.TokenRecord{}, types.Err(types.ErrStoreAccess, err, "store commit %s", id)
	}
	return rec, nil
}

// invalidate drops the cache entry for key, swallowing failures; the
// cache self-corrects on its own schedule and must not block a write.
func (s *Service) invalidate(ctx context.Context, key string) {
	if err := s.cache.Invalidate(ctx, CacheNamespace, key); err != nil {
		log.WithError(err).WithField("id", key).Warn("cache invalidate failed")
	}
}
