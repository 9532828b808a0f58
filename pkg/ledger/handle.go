// Package ledger implements the signer/append handle (C5) and the JSONL
// ledger writer (C6): the producer side of a GuardClaw Execution Framework
// evidence ledger.
package ledger

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/guardclaw/gef/pkg/canonicalize"
	"github.com/guardclaw/gef/pkg/chain"
	"github.com/guardclaw/gef/pkg/crypto"
	"github.com/guardclaw/gef/pkg/envelope"
	"github.com/guardclaw/gef/pkg/payloadschema"
)

// State is one of the ledger handle's three lifecycle states.
type State int

const (
	Closed State = iota
	OpenEmpty
	OpenNonempty
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenEmpty:
		return "open-empty"
	case OpenNonempty:
		return "open-nonempty"
	default:
		return "unknown"
	}
}

// Handle is the append-only ledger producer. It owns the signing key, the
// agent identity, the running sequence counter, and the canonical bytes of
// the most recently appended signing surface. A Handle commits state only
// after the writer confirms the line is durably appended, so a failed
// Append leaves every field unchanged and is safe to retry.
type Handle struct {
	mu sync.Mutex

	signer  *crypto.Signer
	agentID string

	w *writer

	payloadSchemas *payloadschema.Registry
	logger         *slog.Logger

	state              State
	nextSequence       uint64
	lastCanonicalBytes []byte // nil at genesis
}

// WithPayloadSchemas configures an optional per-record_type JSON Schema
// registry (§11). Payloads are checked against it in addition to, never
// instead of, the core envelope validation.
func (h *Handle) WithPayloadSchemas(registry *payloadschema.Registry) *Handle {
	h.payloadSchemas = registry
	return h
}

// WithLogger attaches a structured logger. Append logs one event per
// successful write and one on I/O failure; nil (the default) disables
// logging entirely.
func (h *Handle) WithLogger(logger *slog.Logger) *Handle {
	h.logger = logger
	return h
}

// Clock is injectable so tests can control the timestamp produced by Append.
type Clock func() time.Time

// Open opens (or creates) the ledger file at path and recovers the
// sequence counter and last signing surface by replaying any existing
// entries, per §4.6. The returned Handle is ready to Append.
func Open(path string, signer *crypto.Signer, agentID string) (*Handle, error) {
	w, recovered, err := openWriter(path)
	if err != nil {
		return nil, err
	}

	h := &Handle{
		signer:  signer,
		agentID: agentID,
		w:       w,
	}
	if recovered.empty {
		h.state = OpenEmpty
		h.nextSequence = 0
		h.lastCanonicalBytes = nil
	} else {
		h.state = OpenNonempty
		h.nextSequence = recovered.nextSequence
		h.lastCanonicalBytes = recovered.lastCanonicalBytes
	}
	return h, nil
}

// State reports the handle's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Append builds, signs, and durably writes one evidence envelope, following
// the nine-step algorithm of §4.5 in order. On any failure the handle's
// state (sequence counter, last canonical bytes) is left exactly as it was.
func (h *Handle) Append(recordType string, payload map[string]any) (envelope.Envelope, error) {
	return h.AppendAt(recordType, payload, time.Now)
}

// AppendAt is Append with an injectable clock, used by tests that need
// deterministic timestamps.
func (h *Handle) AppendAt(recordType string, payload map[string]any, now Clock) (envelope.Envelope, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Closed {
		return envelope.Envelope{}, ErrClosed
	}

	// Step 1: causal_hash from the previous entry's canonical bytes, or the
	// genesis sentinel if the ledger is empty.
	causalHash := chain.GenesisHash()
	if h.lastCanonicalBytes != nil {
		causalHash = chain.CausalHashFromCanonicalBytes(h.lastCanonicalBytes)
	}

	// Step 2: sequence.
	seq := h.nextSequence

	// Step 3: fresh nonce.
	nonceHex, err := crypto.RandomNonceHex()
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("ledger: generating nonce: %w", err)
	}

	// Step 4: millisecond-truncated (not rounded) UTC timestamp.
	timestamp := formatTimestamp(now())

	// Step 5: build and schema-validate the unsigned envelope.
	e, err := envelope.BuildUnsigned(recordType, h.agentID, h.signer.PublicKeyHex(), seq, nonceHex, timestamp, causalHash, payload)
	if err != nil {
		return envelope.Envelope{}, err
	}
	if h.payloadSchemas != nil {
		if err := h.payloadSchemas.Validate(recordType, payload); err != nil {
			return envelope.Envelope{}, &envelope.SchemaError{Reasons: []envelope.Reason{{Field: "payload", Detail: err.Error()}}}
		}
	}

	// Step 6: canonicalize the signing surface.
	canonicalBytes, err := canonicalize.JCS(e.SigningSurfaceValue())
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("ledger: canonicalizing signing surface: %w", err)
	}

	// Steps 7-8: sign and attach.
	e.Signature = h.signer.SignBase64URL(canonicalBytes)

	// Step 9: hand to the writer. State only advances on confirmed write.
	line, err := envelope.MarshalLine(e)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("ledger: marshaling envelope: %w", err)
	}
	if err := h.w.appendLine(line); err != nil {
		if h.logger != nil {
			h.logger.Error("ledger append failed", "agent_id", h.agentID, "sequence", seq, "error", err)
		}
		return envelope.Envelope{}, err
	}

	h.nextSequence = seq + 1
	h.lastCanonicalBytes = canonicalBytes
	h.state = OpenNonempty

	if h.logger != nil {
		h.logger.Info("ledger append", "agent_id", h.agentID, "sequence", e.Sequence, "record_type", e.RecordType)
	}

	return e, nil
}

// Sync requests the writer fsync the ledger file, for callers that need
// durability beyond OS buffering.
func (h *Handle) Sync() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Closed {
		return ErrClosed
	}
	return h.w.sync()
}

// Close releases the writer's exclusive lock and file handle.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Closed {
		return nil
	}
	err := h.w.close()
	h.state = Closed
	return err
}

// formatTimestamp renders t as UTC with exactly three fractional-second
// digits, truncating (never rounding) any finer precision, per §3.1 and
// the §4.5 step-4 mandate.
func formatTimestamp(t time.Time) string {
	t = t.UTC().Truncate(time.Millisecond)
	return t.Format("2006-01-02T15:04:05.000Z")
}
