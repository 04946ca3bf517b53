// Package partition divides the 12-byte free-nonce space so that any
// number of CPU or GPU workers enumerate disjoint ranges within one
// mining session.
package partition

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
)

// WorkUnitSize is the number of nonce12 values a single (worker_id,
// iteration_nonce) pair covers: the 2-byte local counter's full range.
const WorkUnitSize = 1 << 16

// Session is drawn once per mining session and seeds every worker's
// starting point, so restarts don't re-scan previously tried regions.
type Session struct {
	runSeed [4]byte
}

// NewSession draws a fresh session-scoped run seed from the OS RNG.
func NewSession() (Session, error) {
	var s Session
	if _, err := rand.Read(s.runSeed[:]); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Worker returns the partition owned by one worker (a CPU thread index
// or GPU work-group id). id need not be globally unique beyond this
// session.
func (s Session) Worker(id uint16) *Worker {
	return &Worker{runSeed: s.runSeed, workerID: id}
}

// Worker enumerates a disjoint slice of the 12-byte nonce space. It draws
// successive iteration nonces, each covering WorkUnitSize distinct
// nonce12 values via the local counter.
type Worker struct {
	runSeed        [4]byte
	workerID       uint16
	iterationNonce uint32 // next value to hand out; advanced atomically
}

// NextWorkUnit reserves and returns the next iteration_nonce for this
// worker. Every call returns a value distinct from every other call on
// the same Worker, for the lifetime of the session.
func (w *Worker) NextWorkUnit() uint32 {
	return atomic.AddUint32(&w.iterationNonce, 1) - 1
}

// Nonce12 composes nonce12 = run_seed(4) || worker_id(2) ||
// iteration_nonce(4) || local_counter(2) for one (iterationNonce,
// localCounter) pair. Distinct (worker_id, iteration_nonce,
// local_counter) triples always yield distinct nonce12 values: worker_id
// and iteration_nonce occupy fixed, non-overlapping byte ranges, and
// local_counter ranges over the full remaining WorkUnitSize span.
func (w *Worker) Nonce12(iterationNonce uint32, localCounter uint16) [12]byte {
	var n [12]byte
	copy(n[0:4], w.runSeed[:])
	binary.BigEndian.PutUint16(n[4:6], w.workerID)
	binary.BigEndian.PutUint32(n[6:10], iterationNonce)
	binary.BigEndian.PutUint16(n[10:12], localCounter)
	return n
}
