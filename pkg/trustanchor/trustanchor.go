// Package trustanchor resolves a GEF policy public key from a JWT signed
// by a higher-level key the operator already trusts out of band, so a CLI
// caller need not paste a raw hex key on every invocation. It is an
// operational convenience around the CLI collaborator (§6.4 / §11), not a
// change to the core verification contract: it only ever produces the same
// PolicyPublicKeyHex the replay engine already accepts.
package trustanchor

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the minimal claim set a trust-anchor JWT must carry.
type Claims struct {
	SignerPublicKeyHex string `json:"signer_public_key"`
	AgentID            string `json:"agent_id,omitempty"`
	jwt.RegisteredClaims
}

// ErrMissingSignerKey is returned when a trust-anchor JWT parses and
// verifies but carries no signer_public_key claim.
var ErrMissingSignerKey = errors.New("trustanchor: token has no signer_public_key claim")

// ResolvePolicyKey parses and verifies tokenString with verifyKey (the
// operator's out-of-band trusted key) and returns the embedded
// signer_public_key, ready to pass as replay.Options.PolicyPublicKeyHex.
func ResolvePolicyKey(tokenString string, verifyKey interface{}) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return verifyKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("trustanchor: parsing token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("trustanchor: token failed verification")
	}
	if claims.SignerPublicKeyHex == "" {
		return "", ErrMissingSignerKey
	}
	return claims.SignerPublicKeyHex, nil
}
