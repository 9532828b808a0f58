// Package canonicalize produces RFC 8785 (JSON Canonicalization Scheme)
// compliant byte serializations, the sole input to GEF signing and chain
// hashing.
package canonicalize

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// JCS returns the RFC 8785 canonical JSON representation of v.
//
// v is marshaled with the standard library first (so struct tags and
// custom MarshalJSON methods are respected), then transformed into
// canonical form by gowebpki/jcs, which performs the ECMAScript-compatible
// number formatting and lexicographic key ordering the scheme requires.
func JCS(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w: %v", ErrSerialization, err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w: %v", ErrSerialization, err)
	}

	return canonical, nil
}

// MustJCS is JCS for callers that have already established v is
// representable (e.g. after schema validation). It panics on failure,
// which should be unreachable for validated envelopes.
func MustJCS(v interface{}) []byte {
	b, err := JCS(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Hash returns the SHA-256 hex digest of the canonical JSON representation
// of v.
func Hash(v interface{}) (string, error) {
	b, err := JCS(v)
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}

// HashBytes returns the SHA-256 hex digest of raw bytes.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Equal reports whether two values have byte-identical canonical
// representations.
func Equal(a, b interface{}) bool {
	ab, errA := JCS(a)
	bb, errB := JCS(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
