package crypto

import "crypto/sha256"

// SHA256 returns the 32-byte SHA-256 digest of data (FIPS 180-4).
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// SHA256Hex returns the lowercase hex digest of data's SHA-256 hash.
func SHA256Hex(data []byte) string {
	sum := SHA256(data)
	return EncodeHex(sum[:])
}
