package envelope

import "encoding/json"

// envelopeFieldNames is the closed eleven-field set of §3.1. A ledger line
// with any other key, or missing one of these, is a schema violation: "no
// more, no fewer, no optional fields."
var envelopeFieldNames = map[string]bool{
	"gef_version":       true,
	"record_id":         true,
	"record_type":       true,
	"agent_id":          true,
	"signer_public_key": true,
	"sequence":          true,
	"nonce":             true,
	"timestamp":         true,
	"causal_hash":       true,
	"payload":           true,
	"signature":         true,
}

// ParseLine decodes one ledger line into an Envelope. It first checks field
// cardinality against the raw key set: an extra (smuggled) key or a missing
// key is reported as a *SchemaError before the line is ever decoded into an
// Envelope struct, so a JSON object with a 12th key cannot silently pass
// through json.Unmarshal's default ignore-unknown-fields behavior.
func ParseLine(line []byte) (Envelope, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return Envelope{}, err
	}
	if reasons := checkFieldCardinality(raw); len(reasons) > 0 {
		return Envelope{}, newSchemaError(reasons)
	}

	var e Envelope
	if err := json.Unmarshal(line, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// checkFieldCardinality reports every key present that isn't one of the
// eleven §3.1 fields, and every one of the eleven that's absent.
func checkFieldCardinality(raw map[string]json.RawMessage) []Reason {
	var reasons []Reason
	for name := range raw {
		if !envelopeFieldNames[name] {
			reasons = append(reasons, Reason{Field: name, Detail: "unexpected field; the schema defines exactly eleven fields"})
		}
	}
	for name := range envelopeFieldNames {
		if _, ok := raw[name]; !ok {
			reasons = append(reasons, Reason{Field: name, Detail: "missing required field"})
		}
	}
	return reasons
}

// MarshalLine serializes e as the single-line JSON object written to a
// ledger file. Field ordering within the stored line is not constrained by
// the protocol; canonicalization for hashing always goes through the
// canonicalize package against SigningSurfaceValue, never through this
// encoding.
func MarshalLine(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}
