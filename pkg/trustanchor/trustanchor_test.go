package trustanchor

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestResolvePolicyKey_ValidToken(t *testing.T) {
	key := []byte("test-trust-anchor-key")
	claims := &Claims{
		SignerPublicKeyHex: "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a",
		AgentID:            "agent-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	resolved, err := ResolvePolicyKey(signed, key)
	require.NoError(t, err)
	require.Equal(t, claims.SignerPublicKeyHex, resolved)
}

func TestResolvePolicyKey_WrongKeyFails(t *testing.T) {
	key := []byte("test-trust-anchor-key")
	wrongKey := []byte("not-the-right-key")
	claims := &Claims{SignerPublicKeyHex: "abc123"}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	_, err = ResolvePolicyKey(signed, wrongKey)
	require.Error(t, err)
}

func TestResolvePolicyKey_MissingClaimFails(t *testing.T) {
	key := []byte("test-trust-anchor-key")
	claims := &Claims{}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	_, err = ResolvePolicyKey(signed, key)
	require.ErrorIs(t, err, ErrMissingSignerKey)
}

func TestResolvePolicyKey_ExpiredTokenFails(t *testing.T) {
	key := []byte("test-trust-anchor-key")
	claims := &Claims{
		SignerPublicKeyHex: "abc123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	_, err = ResolvePolicyKey(signed, key)
	require.Error(t, err)
}
