// Package ident provides the 128-bit token identifier: generation,
// canonical text form and strict parsing.
package ident

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EncodedLen is the length of the canonical text form: 32 hex characters,
// no separators.
const EncodedLen = 32

// ID is an opaque 128-bit identifier. The canonical text form is 32
// uppercase hex characters; parsing accepts either case.
type ID [16]byte

// New returns a fresh random ID. Collisions are statistically negligible.
func New() ID {
	return ID(uuid.New())
}

// Parse decodes the canonical text form. Hyphenated or otherwise
// decorated forms are rejected.
func Parse(s string) (ID, error) {
	var id ID
	if len(s) != EncodedLen {
		return id, fmt.Errorf("ident: expected %d hex characters, got %d", EncodedLen, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("ident: %w", err)
	}
	copy(id[:], b)
	return id, nil
}

// String returns the canonical uppercase hex form.
func (id ID) String() string {
	return strings.ToUpper(hex.EncodeToString(id[:]))
}

// IsZero reports whether the ID is the all-zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalText implements encoding.TextMarshaler using the canonical form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
