package crypto

import "errors"

var (
	// ErrInvalidKeySize is returned when a decoded key does not match the
	// expected Ed25519 key length.
	ErrInvalidKeySize = errors.New("crypto: invalid key size")
	// ErrInvalidSignatureEncoding is returned when a signature string fails
	// to decode as base64url.
	ErrInvalidSignatureEncoding = errors.New("crypto: invalid signature encoding")
)
