package ledger

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/guardclaw/gef/pkg/canonicalize"
	"github.com/guardclaw/gef/pkg/envelope"
)

// writer owns exclusive write access to one ledger file (C6). It is not
// exported: callers drive it through Handle, which is the public surface
// for append.
type writer struct {
	path string
	file *os.File
	lock *flock.Flock
}

// recoveredState is what scanning an existing ledger file on open yields:
// the position and canonical bytes needed to resume appending, plus
// whether the final line was an unreadable partial write.
type recoveredState struct {
	nextSequence       uint64
	lastCanonicalBytes []byte
	empty              bool
	trailingPartial    bool
}

// openWriter opens path for append, acquiring an exclusive advisory lock
// for the lifetime of the handle. If the file does not exist it is created
// empty. If it exists, it is scanned once to recover the last sequence and
// the canonical bytes of the last envelope's signing surface.
func openWriter(path string) (*writer, recoveredState, error) {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, recoveredState{}, &IOError{Op: "lock", Err: err}
	}

	state, err := scanForRecovery(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, recoveredState{}, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, recoveredState{}, &IOError{Op: "open", Err: err}
	}

	return &writer{path: path, file: f, lock: lock}, state, nil
}

// scanForRecovery reads every line of an existing ledger file to find the
// last fully-parseable envelope. A parse failure on the final line is
// trailing-partial-line handling (§4.6): it does not invalidate any
// preceding entry and is reported back to the caller rather than treated
// as fatal.
func scanForRecovery(path string) (recoveredState, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return recoveredState{empty: true}, nil
	}
	if err != nil {
		return recoveredState{}, &IOError{Op: "scan", Err: err}
	}
	defer f.Close()

	var (
		lastGood        envelope.Envelope
		sawAny          bool
		trailingPartial bool
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		e, err := envelope.ParseLine(line)
		if err != nil {
			trailingPartial = true
			continue
		}
		if reasons := e.Validate(); len(reasons) > 0 {
			trailingPartial = true
			continue
		}
		lastGood = e
		sawAny = true
		trailingPartial = false
	}
	if err := scanner.Err(); err != nil {
		return recoveredState{}, &IOError{Op: "scan", Err: err}
	}

	if !sawAny {
		return recoveredState{empty: true, trailingPartial: trailingPartial}, nil
	}

	canonicalBytes, err := canonicalize.JCS(lastGood.SigningSurfaceValue())
	if err != nil {
		return recoveredState{}, fmt.Errorf("ledger: recovering last signing surface: %w", err)
	}

	return recoveredState{
		nextSequence:       lastGood.Sequence + 1,
		lastCanonicalBytes: canonicalBytes,
		trailingPartial:    trailingPartial,
	}, nil
}

// appendLine writes one JSON line plus a trailing newline as a single write
// call, then flushes to the OS. Durability beyond that (fsync) is left to
// callers that need it; most evidence pipelines accept OS-buffered durability.
func (w *writer) appendLine(line []byte) error {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := w.file.Write(buf); err != nil {
		return &IOError{Op: "append", Err: err}
	}
	return nil
}

// sync requests fsync for callers requiring durability beyond OS buffering.
func (w *writer) sync() error {
	if err := w.file.Sync(); err != nil {
		return &IOError{Op: "sync", Err: err}
	}
	return nil
}

func (w *writer) close() error {
	closeErr := w.file.Close()
	unlockErr := w.lock.Unlock()
	if closeErr != nil {
		return &IOError{Op: "close", Err: closeErr}
	}
	if unlockErr != nil {
		return &IOError{Op: "unlock", Err: unlockErr}
	}
	return nil
}
