package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/guardclaw/gef/pkg/envelope"
)

// runInspectCmd implements `gef inspect <path>` (§12), a read-only
// convenience for decoding a single envelope out of a ledger without
// running full verification.
//
// Exit codes:
//
//	0 = the requested envelope was found and printed
//	2 = runtime error (bad flags, unreadable file, out-of-range sequence)
func runInspectCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("inspect", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var sequence int64
	cmd.Int64Var(&sequence, "sequence", -1, "Sequence (position) to print; defaults to the last entry in the ledger")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	path := ""
	if cmd.NArg() == 1 {
		path = cmd.Arg(0)
	} else if cmd.NArg() == 0 {
		path = os.Getenv("GEF_LEDGER_PATH")
	}
	if path == "" {
		_, _ = fmt.Fprintln(stderr, "gef inspect: expected exactly one ledger path argument")
		return 2
	}

	f, err := os.Open(path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "gef inspect: %v\n", err)
		return 2
	}
	defer f.Close()

	var found *envelope.Envelope
	var position int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		e, parseErr := envelope.ParseLine(line)
		if parseErr != nil {
			_, _ = fmt.Fprintf(stderr, "gef inspect: malformed entry at sequence %d: %v\n", position, parseErr)
			return 2
		}
		if sequence < 0 || position == sequence {
			cp := e
			found = &cp
		}
		position++
	}
	if err := scanner.Err(); err != nil {
		_, _ = fmt.Fprintf(stderr, "gef inspect: %v\n", err)
		return 2
	}

	if found == nil {
		if sequence >= 0 {
			_, _ = fmt.Fprintf(stderr, "gef inspect: no entry at sequence %d (ledger has %d entries)\n", sequence, position)
		} else {
			_, _ = fmt.Fprintln(stderr, "gef inspect: ledger is empty")
		}
		return 2
	}

	data, err := json.MarshalIndent(found, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "gef inspect: %v\n", err)
		return 2
	}
	_, _ = fmt.Fprintln(stdout, string(data))
	return 0
}
