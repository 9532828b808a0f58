// Package payloadschema is an optional extension, invited but not
// mandated by §3.1's "contents application-defined": per-record_type JSON
// Schema validation of an envelope's payload, layered above (never in
// place of) the core schema checks in pkg/envelope.
package payloadschema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Registry maps a record_type to the JSON Schema its payload must satisfy.
// A record_type with no registered schema is not constrained beyond being
// a JSON object, which is the core requirement.
type Registry struct {
	schemas map[string]*jsonschema.Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*jsonschema.Schema)}
}

// Register compiles schemaJSON and associates it with recordType. Compile
// failures are returned immediately so a misconfigured schema is caught at
// setup time, not at the first append.
func (r *Registry) Register(recordType string, schemaJSON []byte) error {
	compiler := jsonschema.NewCompiler()
	resourceName := recordType + ".json"
	if err := compiler.AddResource(resourceName, bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("payloadschema: adding schema for %q: %w", recordType, err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return fmt.Errorf("payloadschema: compiling schema for %q: %w", recordType, err)
	}
	r.schemas[recordType] = schema
	return nil
}

// Validate checks payload against the schema registered for recordType, if
// any. It returns nil when no schema is registered: an unregistered
// record_type is unconstrained beyond the core envelope rules.
func (r *Registry) Validate(recordType string, payload map[string]any) error {
	schema, ok := r.schemas[recordType]
	if !ok {
		return nil
	}

	// jsonschema validates against decoded JSON values (map[string]any,
	// []any, float64, etc.). payload is round-tripped through
	// json.Marshal/Unmarshal so that Go-typed values inside it (ints, typed
	// maps and slices) reach the validator in that decoded form.
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payloadschema: marshaling payload: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("payloadschema: decoding payload: %w", err)
	}

	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("payloadschema: %s payload: %w", recordType, err)
	}
	return nil
}
