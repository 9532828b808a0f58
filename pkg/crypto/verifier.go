package crypto

import "crypto/ed25519"

// Verify reports whether signature is a valid pure Ed25519 signature of
// message under publicKey. It never panics or returns an error: a
// malformed public key or signature simply verifies false, letting the
// caller record a typed violation rather than handle an exception.
func Verify(publicKey, message, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

// VerifyHex verifies a signature given hex-encoded public key and
// base64url-encoded signature, the encodings used on the wire. Decode
// failures verify false rather than raising, matching the no-throw
// contract of Verify.
func VerifyHex(publicKeyHex string, message []byte, signatureB64URL string) bool {
	pub, err := DecodeHex(publicKeyHex)
	if err != nil {
		return false
	}
	sig, err := DecodeBase64URL(signatureB64URL)
	if err != nil {
		return false
	}
	return Verify(pub, message, sig)
}
