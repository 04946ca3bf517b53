// Package output implements the result sink: an append-only
// log of mining results, guarded by an OS-level exclusive advisory lock
// so concurrent sessions sharing the same file never interleave a torn
// line.
package output

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/KONFeature/create2crunch/internal/crypto"
	"github.com/KONFeature/create2crunch/pkg/types"
)

// DefaultPath is address_per_contracts.txt in the working directory.
const DefaultPath = "address_per_contracts.txt"

// Sink appends session records to Path, taking an exclusive file lock
// for the duration of each write (never across the whole session).
type Sink struct {
	Path string
}

// New creates a Sink writing to path. An empty path uses DefaultPath.
func New(path string) *Sink {
	if path == "" {
		path = DefaultPath
	}
	return &Sink{Path: path}
}

// WriteStart appends the session-start header line.
func (s *Sink) WriteStart(now time.Time) error {
	return s.appendLocked(fmt.Sprintf("Start: %d\n", now.Unix()))
}

// WriteEnd appends the session-end footer line.
func (s *Sink) WriteEnd(now time.Time) error {
	return s.appendLocked(fmt.Sprintf("End: %d\n", now.Unix()))
}

// WriteTargetResult appends one target's result line:
//
//	<name> - "<init_hash_hex>": <salt_hex> => <address_hex> : <reward> (<leading> / <total>)
func (s *Sink) WriteTargetResult(targetName string, initCodeHash [32]byte, c types.Candidate) error {
	line := fmt.Sprintf("%s - %q: %x => %s : %d (%d / %d)\n",
		targetName,
		hex.EncodeToString(initCodeHash[:]),
		c.Salt[:],
		crypto.AddressToHex(c.Address),
		c.Reward, c.Leading, c.Total,
	)
	return s.appendLocked(line)
}

func (s *Sink) appendLocked(line string) error {
	// The lock is taken on the output file itself so independent
	// processes sharing the path serialize on the same inode.
	lock := flock.New(s.Path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking output file: %w", err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
