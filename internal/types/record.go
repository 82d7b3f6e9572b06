package types

import (
	"strings"
	"time"

	"tokend/internal/ident"
)

// TokenRecord is the persisted entity: an opaque identifier bound to an
// owning user and an absolute expiration instant.
// ExpiresAt is always UTC with whole-second precision; values cross the
// wire as UNIX epoch seconds.
// Serialization is owned by the edges (HTTP DTOs, backend item structs),
// so the struct carries no wire tags.
type TokenRecord struct {
	ID        ident.ID
	Owner     string
	ExpiresAt time.Time
}

// ExpiredAt reports whether the record is logically dead as of now.
// Comparison is strict: a record expiring exactly at now is still live.
func (r TokenRecord) ExpiredAt(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}

// TruncateToSecond normalizes an instant to UTC whole seconds, the only
// precision a record ever carries.
func TruncateToSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// ValidOwner reports whether the owner is acceptable for persistence:
// non-empty and not all whitespace.
func ValidOwner(owner string) bool {
	return strings.TrimSpace(owner) != ""
}
