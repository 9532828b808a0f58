package replay

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/guardclaw/gef/pkg/canonicalize"
	"github.com/guardclaw/gef/pkg/chain"
	"github.com/guardclaw/gef/pkg/crypto"
	"github.com/guardclaw/gef/pkg/envelope"
)

// Options configures one verification run.
type Options struct {
	// PolicyPublicKeyHex, if non-empty, is compared against every
	// envelope's signer_public_key. A mismatch is a schema violation.
	// If empty, each envelope is verified against its own embedded key.
	PolicyPublicKeyHex string

	// Logger, if set, receives one warning per violation and one summary
	// event at the end of the run. It is a side channel: nothing it
	// receives changes the returned ReplaySummary.
	Logger *slog.Logger
}

// Verify runs the two-phase per-entry verification algorithm of §4.7 over
// r, reporting a complete ReplaySummary. Ordinary ledger problems are
// violations in the summary, not errors. The version-fatal condition halts
// the scan and returns the summary with FatalError set (and a nil error);
// only an I/O failure on r itself is returned as an error.
func Verify(r io.Reader, opts Options) (*ReplaySummary, error) {
	summary := &ReplaySummary{}

	seenNonces := make(map[string]bool)
	var lastCanonicalBytes []byte
	var ledgerVersion string
	var ledgerVersionMinor int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	position := 0
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		summary.TotalEntries++

		e, parseErr := envelope.ParseLine(line)
		if parseErr != nil {
			summary.Violations = append(summary.Violations, ChainViolation{
				Kind:       KindSchema,
				AtSequence: int64(position),
				Detail:     "malformed JSON: " + parseErr.Error(),
			})
			position++
			continue
		}

		// Forward-compatibility / version-fatal check, evaluated at every
		// position but meaningful mainly for position 0.
		if position == 0 {
			ledgerVersion = e.GEFVersion
			ledgerVersionMinor = parseMinor(ledgerVersion)
		} else if e.GEFVersion != ledgerVersion {
			summary.Violations = append(summary.Violations, ChainViolation{
				Kind:       KindSchema,
				AtSequence: int64(position),
				Detail:     "mixed gef_version within ledger",
				Expected:   ledgerVersion,
				Actual:     e.GEFVersion,
			})
		}
		if isFatalMajorMismatch(e.GEFVersion) {
			summary.FatalError = fmt.Sprintf("unsupported gef_version %q at sequence %d", e.GEFVersion, position)
			summary.finalize()
			return summary, nil
		}

		reasons := e.Validate()
		if ledgerVersionMinor > 0 && !envelope.RecordTypes[e.RecordType] {
			// Unknown record_type under a compatible "1.y" minor version is
			// a warning, not a violation (§4.7 forward-compatibility rule).
			reasons = filterOutRecordTypeReason(reasons)
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("unrecognized record_type %q at sequence %d under gef_version %q", e.RecordType, position, e.GEFVersion))
		}
		if opts.PolicyPublicKeyHex != "" && e.SignerPublicKey != opts.PolicyPublicKeyHex {
			reasons = append(reasons, envelope.Reason{Field: "signer_public_key", Detail: "does not match policy key"})
		}

		// Step 2: schema failure skips phase-2 (signature) for this entry
		// only. Steps 3-6 still run on a schema-invalid entry — §4.7 step 6
		// requires last_canonical_bytes to advance "whether or not phase-2
		// passes", and skipping steps 3-6 here would also swallow this
		// entry's own sequence_gap/chain_break diagnostics and desync the
		// chain check for every entry after it.
		schemaValid := len(reasons) == 0
		for _, reason := range reasons {
			summary.Violations = append(summary.Violations, ChainViolation{
				Kind:       KindSchema,
				AtSequence: int64(position),
				Detail:     reason.String(),
			})
		}

		// Step 3: sequence check.
		if e.Sequence != uint64(position) {
			summary.Violations = append(summary.Violations, ChainViolation{
				Kind:       KindSequenceGap,
				AtSequence: int64(position),
				Detail:     "stored sequence does not match position",
				Expected:   strconv.FormatInt(int64(position), 10),
				Actual:     strconv.FormatUint(e.Sequence, 10),
			})
		}

		// Step 4: chain check.
		expectedHash := chain.GenesisHash()
		if position > 0 {
			expectedHash = chain.CausalHashFromCanonicalBytes(lastCanonicalBytes)
		}
		if e.CausalHash != expectedHash {
			summary.Violations = append(summary.Violations, ChainViolation{
				Kind:       KindChainBreak,
				AtSequence: int64(position),
				Detail:     "causal_hash does not match recomputed hash of the preceding signing surface",
				Expected:   expectedHash,
				Actual:     e.CausalHash,
			})
		}

		// Step 5: nonce uniqueness.
		if seenNonces[e.Nonce] {
			summary.Violations = append(summary.Violations, ChainViolation{
				Kind:       KindSchema,
				AtSequence: int64(position),
				Detail:     "duplicate nonce",
			})
		}
		seenNonces[e.Nonce] = true

		// Step 6: advance chain state regardless of phase-2 outcome, and
		// regardless of this entry's own schema validity.
		surfaceBytes, err := canonicalize.JCS(e.SigningSurfaceValue())
		if err != nil {
			summary.Violations = append(summary.Violations, ChainViolation{
				Kind:       KindSchema,
				AtSequence: int64(position),
				Detail:     "signing surface is not canonically representable: " + err.Error(),
			})
			position++
			continue
		}
		lastCanonicalBytes = surfaceBytes

		if !schemaValid {
			position++
			continue
		}

		// Phase 2: signature, independent of chain integrity.
		verifyKey := e.SignerPublicKey
		if opts.PolicyPublicKeyHex != "" {
			verifyKey = opts.PolicyPublicKeyHex
		}
		if !crypto.VerifyHex(verifyKey, surfaceBytes, e.Signature) {
			summary.Violations = append(summary.Violations, ChainViolation{
				Kind:       KindInvalidSignature,
				AtSequence: int64(position),
				Detail:     "Ed25519 signature verification failed",
			})
		}

		position++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("replay: reading ledger: %w", err)
	}

	summary.finalize()

	if opts.Logger != nil {
		for _, v := range summary.Violations {
			opts.Logger.Warn("ledger violation", "kind", v.Kind, "at_sequence", v.AtSequence, "detail", v.Detail)
		}
		if summary.OverallValid {
			opts.Logger.Info("replay complete", "total_entries", summary.TotalEntries, "overall_valid", true)
		} else {
			opts.Logger.Error("replay complete", "total_entries", summary.TotalEntries, "overall_valid", false, "violation_count", len(summary.Violations))
		}
	}

	return summary, nil
}

// isFatalMajorMismatch reports whether version is a major version this
// implementation does not speak at all: any major other than "1" (e.g.
// "2.x", "0.x", or a version with no parseable major). "1.0" is native;
// "1.y" with y>0 is forward-compatible per §4.7.
func isFatalMajorMismatch(version string) bool {
	major := strings.SplitN(version, ".", 2)[0]
	return major != "1"
}

func parseMinor(version string) int {
	parts := strings.SplitN(version, ".", 2)
	if len(parts) != 2 {
		return 0
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return minor
}

func filterOutRecordTypeReason(reasons []envelope.Reason) []envelope.Reason {
	out := reasons[:0]
	for _, r := range reasons {
		if r.Field == "record_type" {
			continue
		}
		out = append(out, r)
	}
	return out
}
