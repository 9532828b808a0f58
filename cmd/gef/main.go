// Command gef is the reference CLI wrapper around the GuardClaw Execution
// Framework core (§6.4). It is not part of the protocol itself.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the CLI entrypoint, factored out of main for testability.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "verify":
		return runVerifyCmd(args[2:], stdout, stderr)
	case "inspect":
		return runInspectCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "gef: unknown command %q\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: gef <command> [arguments]")
	_, _ = fmt.Fprintln(w, "\nCommands:")
	_, _ = fmt.Fprintln(w, "  verify <path> [--public-key <hex>] [--trust-anchor <jwt>] [--json] [--json-logs]   Verify a ledger file")
	_, _ = fmt.Fprintln(w, "  inspect <path> [--sequence N]                                       Print one decoded envelope")
}
