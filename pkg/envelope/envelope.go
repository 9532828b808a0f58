// Package envelope implements the eleven-field evidence record (C3):
// the structured form, its ten-field signing-surface projection, and the
// schema validation shared by the signer and the replay engine.
package envelope

import (
	"regexp"

	"github.com/google/uuid"
)

// GEFVersion is the protocol version this implementation speaks natively.
const GEFVersion = "1.0"

// GenesisHash is the causal_hash sentinel for the first envelope in a ledger.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// RecordTypes registered for gef_version "1.0".
var RecordTypes = map[string]bool{
	"execution": true,
	"intent":    true,
	"result":    true,
	"failure":   true,
}

var (
	hexLowerRe     = regexp.MustCompile(`^[0-9a-f]+$`)
	timestampRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)
	base64urlNoPad = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Envelope is one signed evidence record: the atomic unit of a ledger.
// Field order here mirrors §3.1 of the wire schema; json tags drive
// on-disk serialization only, since canonicalization for hashing and
// signing always goes through the canonicalize package, not this struct's
// json.Marshal output.
type Envelope struct {
	GEFVersion      string         `json:"gef_version"`
	RecordID        string         `json:"record_id"`
	RecordType      string         `json:"record_type"`
	AgentID         string         `json:"agent_id"`
	SignerPublicKey string         `json:"signer_public_key"`
	Sequence        uint64         `json:"sequence"`
	Nonce           string         `json:"nonce"`
	Timestamp       string         `json:"timestamp"`
	CausalHash      string         `json:"causal_hash"`
	Payload         map[string]any `json:"payload"`
	Signature       string         `json:"signature"`
}

// SigningSurface is the ten-field projection of an Envelope that omits
// signature. It is the sole input to both the Ed25519 signature and the
// next envelope's causal_hash.
type SigningSurface struct {
	GEFVersion      string         `json:"gef_version"`
	RecordID        string         `json:"record_id"`
	RecordType      string         `json:"record_type"`
	AgentID         string         `json:"agent_id"`
	SignerPublicKey string         `json:"signer_public_key"`
	Sequence        uint64         `json:"sequence"`
	Nonce           string         `json:"nonce"`
	Timestamp       string         `json:"timestamp"`
	CausalHash      string         `json:"causal_hash"`
	Payload         map[string]any `json:"payload"`
}

// SigningSurfaceValue returns the ten signing fields. The spec requires this
// to be identical in content to ChainDictValue (INV-31); both simply return
// the same projection so the two can never drift apart.
func (e Envelope) SigningSurfaceValue() SigningSurface {
	return SigningSurface{
		GEFVersion:      e.GEFVersion,
		RecordID:        e.RecordID,
		RecordType:      e.RecordType,
		AgentID:         e.AgentID,
		SignerPublicKey: e.SignerPublicKey,
		Sequence:        e.Sequence,
		Nonce:           e.Nonce,
		Timestamp:       e.Timestamp,
		CausalHash:      e.CausalHash,
		Payload:         e.Payload,
	}
}

// ChainDictValue is defined by the spec as equal to SigningSurfaceValue;
// INV-31 requires the two projections never diverge, so this is a direct
// alias rather than an independent implementation.
func (e Envelope) ChainDictValue() SigningSurface {
	return e.SigningSurfaceValue()
}

// BuildUnsigned constructs and schema-validates an envelope's ten signing
// fields. record_id is minted here (UUIDv4, per §3.1's recommendation).
// signature is absent because it cannot exist until the caller
// canonicalizes and signs this surface. If validation fails, construction
// fails with a *SchemaError and no envelope is returned.
func BuildUnsigned(recordType, agentID, signerPublicKeyHex string, sequence uint64, nonceHex, timestamp, causalHashHex string, payload map[string]any) (Envelope, error) {
	e := Envelope{
		GEFVersion:      GEFVersion,
		RecordID:        uuid.NewString(),
		RecordType:      recordType,
		AgentID:         agentID,
		SignerPublicKey: signerPublicKeyHex,
		Sequence:        sequence,
		Nonce:           nonceHex,
		Timestamp:       timestamp,
		CausalHash:      causalHashHex,
		Payload:         payload,
	}
	if reasons := e.Validate(); len(reasons) > 0 {
		return Envelope{}, newSchemaError(reasons)
	}
	return e, nil
}

// Validate checks every constraint in §3.1 against e, except the
// signature's cryptographic validity, which callers check separately via
// crypto.Verify once the signing surface bytes are known; a non-empty
// signature is checked here only for unpadded base64url form. It returns
// every violation found, not just the first.
func (e Envelope) Validate() []Reason {
	var reasons []Reason

	if e.GEFVersion == "" {
		reasons = append(reasons, Reason{"gef_version", "must not be empty"})
	}
	if e.RecordID == "" {
		reasons = append(reasons, Reason{"record_id", "must not be empty"})
	}
	if !RecordTypes[e.RecordType] {
		reasons = append(reasons, Reason{"record_type", "unknown record_type \"" + e.RecordType + "\" for gef_version " + e.GEFVersion})
	}
	if e.AgentID == "" {
		reasons = append(reasons, Reason{"agent_id", "must not be empty"})
	}
	if len(e.SignerPublicKey) != 64 || !hexLowerRe.MatchString(e.SignerPublicKey) {
		reasons = append(reasons, Reason{"signer_public_key", "must be exactly 64 lowercase hex characters"})
	}
	if len(e.Nonce) != 32 || !hexLowerRe.MatchString(e.Nonce) {
		reasons = append(reasons, Reason{"nonce", "must be exactly 32 lowercase hex characters"})
	}
	if !timestampRe.MatchString(e.Timestamp) {
		reasons = append(reasons, Reason{"timestamp", "must match YYYY-MM-DDTHH:MM:SS.sssZ"})
	}
	if len(e.CausalHash) != 64 || !hexLowerRe.MatchString(e.CausalHash) {
		reasons = append(reasons, Reason{"causal_hash", "must be exactly 64 lowercase hex characters"})
	}
	if e.Payload == nil {
		reasons = append(reasons, Reason{"payload", "must be a JSON object"})
	}
	if e.Signature != "" && !base64urlNoPad.MatchString(e.Signature) {
		reasons = append(reasons, Reason{"signature", "must be unpadded base64url"})
	}

	return reasons
}

// ValidateSchema is Validate wrapped as an error, for callers (C5) that
// treat any schema problem as a single fatal condition.
func (e Envelope) ValidateSchema() error {
	return newSchemaError(e.Validate())
}
