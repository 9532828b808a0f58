// Package chain implements the causal-hash computer (C4): the link that
// binds each envelope to its predecessor's signing surface.
package chain

import (
	"github.com/guardclaw/gef/pkg/canonicalize"
	"github.com/guardclaw/gef/pkg/crypto"
	"github.com/guardclaw/gef/pkg/envelope"
)

// GenesisHash returns the causal_hash sentinel for position 0 in a ledger.
func GenesisHash() string {
	return envelope.GenesisHash
}

// ComputeCausalHash returns hex(SHA-256(JCS(prev.SigningSurfaceValue()))),
// the causal_hash every envelope after prev must carry. The chain hash
// depends only on the signing surface, never on prev's signature, so it is
// unaffected by whether prev has been signed yet.
func ComputeCausalHash(prev envelope.Envelope) (string, error) {
	canonical, err := canonicalize.JCS(prev.SigningSurfaceValue())
	if err != nil {
		return "", err
	}
	return crypto.SHA256Hex(canonical), nil
}

// ComputeCausalHashFromSurface is ComputeCausalHash for callers that already
// hold the signing surface projection rather than a full envelope.
func ComputeCausalHashFromSurface(surface envelope.SigningSurface) (string, error) {
	canonical, err := canonicalize.JCS(surface)
	if err != nil {
		return "", err
	}
	return crypto.SHA256Hex(canonical), nil
}

// CausalHashFromCanonicalBytes is the low-level form used internally by the
// writer and replay engine, which already hold a predecessor's canonical
// bytes and want to avoid re-canonicalizing.
func CausalHashFromCanonicalBytes(canonicalBytes []byte) string {
	return crypto.SHA256Hex(canonicalBytes)
}
