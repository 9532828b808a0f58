package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func validArgs() (string, string, string, uint64, string, string, string, map[string]any) {
	return "execution",
		"agent-test-001",
		"d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a",
		0,
		"a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
		"2026-02-26T00:00:00.000Z",
		GenesisHash,
		map[string]any{"action": "initialize"}
}

func TestBuildUnsigned_Valid(t *testing.T) {
	rt, agent, key, seq, nonce, ts, hash, payload := validArgs()
	e, err := BuildUnsigned(rt, agent, key, seq, nonce, ts, hash, payload)
	require.NoError(t, err)
	require.NotEmpty(t, e.RecordID)
	require.Empty(t, e.Signature)
	require.Equal(t, GEFVersion, e.GEFVersion)
}

func TestBuildUnsigned_UnknownRecordType(t *testing.T) {
	rt, agent, key, seq, nonce, ts, hash, payload := validArgs()
	_ = rt
	_, err := BuildUnsigned("not-a-real-type", agent, key, seq, nonce, ts, hash, payload)
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestBuildUnsigned_BadPublicKeyLength(t *testing.T) {
	rt, agent, _, seq, nonce, ts, hash, payload := validArgs()
	_, err := BuildUnsigned(rt, agent, "abcd", seq, nonce, ts, hash, payload)
	require.Error(t, err)
}

func TestBuildUnsigned_UppercaseHexRejected(t *testing.T) {
	rt, agent, _, seq, _, ts, hash, payload := validArgs()
	_, err := BuildUnsigned(rt, agent, "D75A980182B10AB7D54BFED3C964073A0EE172F3DAA62325AF021A68F707511A", seq, "A1B2C3D4E5F6A1B2C3D4E5F6A1B2C3D4", ts, hash, payload)
	require.Error(t, err)
}

func TestBuildUnsigned_MalformedTimestamp(t *testing.T) {
	rt, agent, key, seq, nonce, _, hash, payload := validArgs()
	_, err := BuildUnsigned(rt, agent, key, seq, nonce, "2026-02-26T00:00:00Z", hash, payload)
	require.Error(t, err)
}

func TestBuildUnsigned_NilPayloadRejected(t *testing.T) {
	rt, agent, key, seq, nonce, ts, hash, _ := validArgs()
	_, err := BuildUnsigned(rt, agent, key, seq, nonce, ts, hash, nil)
	require.Error(t, err)
}

func TestBuildUnsigned_EmptyPayloadValid(t *testing.T) {
	rt, agent, key, seq, nonce, ts, hash, _ := validArgs()
	_, err := BuildUnsigned(rt, agent, key, seq, nonce, ts, hash, map[string]any{})
	require.NoError(t, err)
}

func TestSigningSurfaceValue_EqualsChainDictValue(t *testing.T) {
	rt, agent, key, seq, nonce, ts, hash, payload := validArgs()
	e, err := BuildUnsigned(rt, agent, key, seq, nonce, ts, hash, payload)
	require.NoError(t, err)
	require.Equal(t, e.SigningSurfaceValue(), e.ChainDictValue())
}

func TestValidate_MultipleReasons(t *testing.T) {
	e := Envelope{}
	reasons := e.Validate()
	require.Greater(t, len(reasons), 1, "an entirely empty envelope must fail on multiple independent fields")
}

func TestMarshalParseLineRoundTrip(t *testing.T) {
	rt, agent, key, seq, nonce, ts, hash, payload := validArgs()
	e, err := BuildUnsigned(rt, agent, key, seq, nonce, ts, hash, payload)
	require.NoError(t, err)
	e.Signature = "abc123"

	line, err := MarshalLine(e)
	require.NoError(t, err)

	parsed, err := ParseLine(line)
	require.NoError(t, err)
	require.Equal(t, e, parsed)
}

func TestParseLine_RejectsSmuggledExtraField(t *testing.T) {
	rt, agent, key, seq, nonce, ts, hash, payload := validArgs()
	e, err := BuildUnsigned(rt, agent, key, seq, nonce, ts, hash, payload)
	require.NoError(t, err)
	e.Signature = "abc123"
	line, err := MarshalLine(e)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(line, &raw))
	raw["smuggled_field"] = json.RawMessage(`"unexpected"`)
	tampered, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = ParseLine(tampered)
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestParseLine_RejectsMissingField(t *testing.T) {
	rt, agent, key, seq, nonce, ts, hash, payload := validArgs()
	e, err := BuildUnsigned(rt, agent, key, seq, nonce, ts, hash, payload)
	require.NoError(t, err)
	e.Signature = "abc123"
	line, err := MarshalLine(e)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(line, &raw))
	delete(raw, "nonce")
	tampered, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = ParseLine(tampered)
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}
