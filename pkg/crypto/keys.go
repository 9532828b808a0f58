// Package crypto provides the Ed25519 and SHA-256 primitives, and the
// encodings, that back the GEF signing surface.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// KeyPair is a generated Ed25519 signing key and its public counterpart.
type KeyPair struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// GenerateKeyPair creates a fresh Ed25519 key pair using the OS CSPRNG.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("crypto: key generation failed: %w", err)
	}
	return KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

// PublicKeyHex returns the lowercase hex encoding of the public key, the
// form stored in an envelope's signer_public_key field.
func (k KeyPair) PublicKeyHex() string {
	return EncodeHex(k.PublicKey)
}
