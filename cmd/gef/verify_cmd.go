package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/guardclaw/gef/pkg/replay"
	"github.com/guardclaw/gef/pkg/trustanchor"
)

// runVerifyCmd implements `gef verify <path>` per §6.4.
//
// Exit codes:
//
//	0 = overall_valid is true
//	1 = overall_valid is false, or a version-fatal error halted verification
//	2 = runtime error (bad flags, unreadable file)
func runVerifyCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		publicKeyHex string
		jsonOutput   bool
		trustAnchor  string
		jsonLogs     bool
	)
	cmd.StringVar(&publicKeyHex, "public-key", os.Getenv("GEF_POLICY_PUBLIC_KEY"), "Policy public key (hex); if unset, each envelope verifies against its own embedded key")
	cmd.BoolVar(&jsonOutput, "json", false, "Output the ReplaySummary as JSON")
	cmd.StringVar(&trustAnchor, "trust-anchor", "", "Path to a trust-anchor JWT carrying the policy public key; overrides --public-key if set")
	cmd.BoolVar(&jsonLogs, "json-logs", false, "Emit the per-violation log trace as JSON instead of text, on stderr")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	args = cmd.Args()
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else if len(args) == 0 {
		path = os.Getenv("GEF_LEDGER_PATH")
	}
	if path == "" {
		_, _ = fmt.Fprintln(stderr, "gef verify: expected exactly one ledger path argument")
		return 2
	}

	if trustAnchor != "" {
		tokenBytes, err := os.ReadFile(trustAnchor)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "gef verify: reading trust anchor: %v\n", err)
			return 2
		}
		verifyKey := []byte(os.Getenv("GEF_TRUST_ANCHOR_KEY"))
		resolved, err := trustanchor.ResolvePolicyKey(string(tokenBytes), verifyKey)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "gef verify: resolving trust anchor: %v\n", err)
			return 2
		}
		publicKeyHex = resolved
	}

	f, err := os.Open(path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "gef verify: %v\n", err)
		return 2
	}
	defer f.Close()

	var logHandler slog.Handler
	if jsonLogs {
		logHandler = slog.NewJSONHandler(stderr, nil)
	} else {
		logHandler = slog.NewTextHandler(stderr, nil)
	}
	logger := slog.New(logHandler)

	summary, err := replay.Verify(f, replay.Options{PolicyPublicKeyHex: publicKeyHex, Logger: logger})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "gef verify: %v\n", err)
		return 2
	}

	if jsonOutput {
		data, encErr := json.MarshalIndent(summary, "", "  ")
		if encErr != nil {
			_, _ = fmt.Fprintf(stderr, "gef verify: %v\n", encErr)
			return 2
		}
		_, _ = fmt.Fprintln(stdout, string(data))
	} else {
		printHuman(stdout, path, summary)
	}

	if summary.FatalError != "" || !summary.OverallValid {
		return 1
	}
	return 0
}

func printHuman(w io.Writer, path string, summary *replay.ReplaySummary) {
	if summary.FatalError != "" {
		_, _ = fmt.Fprintf(w, "VERIFICATION HALTED: %s\n", summary.FatalError)
		_, _ = fmt.Fprintf(w, "ledger: %s\n", path)
		return
	}

	if summary.OverallValid {
		_, _ = fmt.Fprintf(w, "verification PASSED\n")
	} else {
		_, _ = fmt.Fprintf(w, "verification FAILED\n")
	}
	_, _ = fmt.Fprintf(w, "ledger: %s\n", path)
	_, _ = fmt.Fprintf(w, "total_entries: %d\n", summary.TotalEntries)
	_, _ = fmt.Fprintf(w, "schema_valid=%t chain_valid=%t signatures_valid=%t\n", summary.SchemaValid, summary.ChainValid, summary.SignaturesValid)

	for _, v := range summary.Violations {
		_, _ = fmt.Fprintf(w, "  - %s\n", v.String())
	}
	for _, warn := range summary.Warnings {
		_, _ = fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}
