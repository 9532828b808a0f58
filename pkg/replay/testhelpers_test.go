package replay

import (
	"os"

	"github.com/guardclaw/gef/pkg/canonicalize"
	"github.com/guardclaw/gef/pkg/envelope"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func canonicalBytes(e envelope.Envelope) ([]byte, error) {
	return canonicalize.JCS(e.SigningSurfaceValue())
}
