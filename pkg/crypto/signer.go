package crypto

import (
	"crypto/ed25519"
	"fmt"
)

// Signer produces pure Ed25519 (RFC 8032 §5.1) signatures over raw
// message bytes. GEF never uses Ed25519ph or Ed25519ctx.
type Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewSigner wraps an existing Ed25519 private key.
func NewSigner(priv ed25519.PrivateKey) (*Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(priv), ed25519.PrivateKeySize)
	}
	return &Signer{
		privateKey: priv,
		publicKey:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// NewSignerFromKeyPair wraps a generated KeyPair.
func NewSignerFromKeyPair(kp KeyPair) (*Signer, error) {
	return NewSigner(kp.PrivateKey)
}

// Sign returns the 64-byte raw Ed25519 signature of message.
func (s *Signer) Sign(message []byte) []byte {
	return ed25519.Sign(s.privateKey, message)
}

// SignBase64URL signs message and returns the signature as unpadded
// base64url, the form stored in an envelope's signature field.
func (s *Signer) SignBase64URL(message []byte) string {
	return EncodeBase64URL(s.Sign(message))
}

// PublicKey returns the signer's Ed25519 public key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.publicKey
}

// PublicKeyHex returns the lowercase hex encoding of the signer's public
// key, the form stored in an envelope's signer_public_key field.
func (s *Signer) PublicKeyHex() string {
	return EncodeHex(s.publicKey)
}
