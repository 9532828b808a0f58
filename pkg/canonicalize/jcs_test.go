package canonicalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJCS_Sorting(t *testing.T) {
	input := map[string]interface{}{
		"c": 3,
		"a": 1,
		"b": 2,
	}

	b, err := JCS(input)
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"b":2,"c":3}`, string(b))
}

func TestJCS_RecursiveSorting(t *testing.T) {
	input := map[string]interface{}{
		"z": map[string]interface{}{
			"y": "foo",
			"x": "bar",
		},
		"a": 1,
	}

	b, err := JCS(input)
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"z":{"x":"bar","y":"foo"}}`, string(b))
}

func TestJCS_NoHTMLEscaping(t *testing.T) {
	input := map[string]string{
		"html": "<script>alert('xss')</script> &",
	}

	b, err := JCS(input)
	require.NoError(t, err)
	require.Equal(t, `{"html":"<script>alert('xss')</script> &"}`, string(b))
}

// TestJCS_NormativeSigningSurface reproduces the signing-surface vector
// from the protocol's interoperability test vectors byte-for-byte.
func TestJCS_NormativeSigningSurface(t *testing.T) {
	surface := map[string]interface{}{
		"agent_id":          "agent-test-001",
		"causal_hash":       "0000000000000000000000000000000000000000000000000000000000000000",
		"gef_version":       "1.0",
		"nonce":             "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		"payload":           map[string]interface{}{"action": "initialize"},
		"record_id":         "550e8400-e29b-41d4-a716-446655440000",
		"record_type":       "execution",
		"sequence":          json.Number("0"),
		"signer_public_key": "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a",
		"timestamp":         "2026-02-26T00:00:00.000Z",
	}

	b, err := JCS(surface)
	require.NoError(t, err)

	expected := `{"agent_id":"agent-test-001","causal_hash":"0000000000000000000000000000000000000000000000000000000000000000",` +
		`"gef_version":"1.0","nonce":"a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4","payload":{"action":"initialize"},` +
		`"record_id":"550e8400-e29b-41d4-a716-446655440000","record_type":"execution","sequence":0,` +
		`"signer_public_key":"d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a",` +
		`"timestamp":"2026-02-26T00:00:00.000Z"}`
	require.Equal(t, expected, string(b))
}

func TestHash_Stability(t *testing.T) {
	v1 := map[string]interface{}{"a": 1, "b": 2}

	type S struct {
		B int `json:"b"`
		A int `json:"a"`
	}
	v2 := S{B: 2, A: 1}

	h1, err := Hash(v1)
	require.NoError(t, err)
	h2, err := Hash(v2)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestEqual(t *testing.T) {
	a := map[string]interface{}{"x": 1, "y": 2}
	b := map[string]interface{}{"y": 2, "x": 1}
	require.True(t, Equal(a, b))

	c := map[string]interface{}{"y": 3, "x": 1}
	require.False(t, Equal(a, c))
}

func TestJCS_RejectsNaN(t *testing.T) {
	_, err := JCS(map[string]interface{}{"n": json.Number("NaN")})
	require.Error(t, err)
}
