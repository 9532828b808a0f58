package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// EncodeHex returns the lowercase hex encoding of data. All fixed-length
// hex fields in an envelope (signer_public_key, nonce, causal_hash) use
// this encoding; uppercase hex is never produced and is rejected on input.
func EncodeHex(data []byte) string {
	return hex.EncodeToString(data)
}

// DecodeHex decodes a lowercase hex string. It rejects uppercase
// characters so callers get the same case discipline on the way in that
// EncodeHex guarantees on the way out.
func DecodeHex(s string) ([]byte, error) {
	for _, r := range s {
		if r >= 'A' && r <= 'F' {
			return nil, fmt.Errorf("crypto: hex string contains uppercase characters: %q", s)
		}
	}
	return hex.DecodeString(s)
}

// EncodeBase64URL encodes data as unpadded base64url, the encoding used
// for the envelope signature field.
func EncodeBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeBase64URL decodes an unpadded base64url string. Padded input is
// rejected: the protocol mandates no padding so that signature strings
// compare byte-for-byte across implementations.
func DecodeBase64URL(s string) ([]byte, error) {
	for _, r := range s {
		if r == '=' {
			return nil, fmt.Errorf("%w: padded base64url is not permitted", ErrInvalidSignatureEncoding)
		}
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignatureEncoding, err)
	}
	return b, nil
}

// NonceSizeBytes is the number of random bytes drawn per nonce (128 bits).
const NonceSizeBytes = 16

// RandomNonceHex returns 128 bits of CSPRNG randomness as 32 lowercase hex
// characters.
func RandomNonceHex() (string, error) {
	buf := make([]byte, NonceSizeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("crypto: nonce generation failed: %w", err)
	}
	return EncodeHex(buf), nil
}
