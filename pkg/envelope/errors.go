package envelope

import "fmt"

// Reason is a single structured schema-validation failure. Validation never
// collapses multiple problems into one string: every reason names the field
// and what was wrong with it, so a replay report stays precise.
type Reason struct {
	Field  string
	Detail string
}

func (r Reason) String() string {
	return fmt.Sprintf("%s: %s", r.Field, r.Detail)
}

// SchemaError wraps one or more Reasons. It is returned by BuildUnsigned,
// ValidateSchema and ParseLine (Validate itself returns the bare Reasons);
// construction never emits a partially-built envelope.
type SchemaError struct {
	Reasons []Reason
}

func (e *SchemaError) Error() string {
	if len(e.Reasons) == 1 {
		return "envelope: schema violation: " + e.Reasons[0].String()
	}
	msg := fmt.Sprintf("envelope: %d schema violations", len(e.Reasons))
	for _, r := range e.Reasons {
		msg += "; " + r.String()
	}
	return msg
}

func newSchemaError(reasons []Reason) error {
	if len(reasons) == 0 {
		return nil
	}
	return &SchemaError{Reasons: reasons}
}
