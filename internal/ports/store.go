package ports

import (
	"context"

	"tokend/internal/ident"
	"tokend/internal/types"
)

// Query selects records in the durable store. Only exact-ID matching is
// used by the core; the struct form leaves room for other filters.
type Query struct {
	ID ident.ID
}

// TokenStore is the authoritative CRUD storage for token records.
// Implementations MUST provide per-record atomicity for their own
// add/update/delete (no partial writes visible); they own their own
// timeout/retry policy.
type TokenStore interface {
	// Get returns the records matching the query; zero or one in
	// practice. Absence is an empty slice, not an error.
	Get(ctx context.Context, q Query) ([]types.TokenRecord, error)

	// Add stages a brand-new record. The store's uniqueness constraint
	// on the identifier is the caller's guard against duplicates.
	Add(ctx context.Context, rec types.TokenRecord) error

	// Update stages a full replacement of an existing record.
	Update(ctx context.Context, rec types.TokenRecord) error

	// Delete stages removal of the record.
	Delete(ctx context.Context, rec types.TokenRecord) error

	// Commit durably applies mutations staged since the last commit.
	// Stores that apply mutations immediately implement this as a no-op.
	Commit(ctx context.Context) error
}
