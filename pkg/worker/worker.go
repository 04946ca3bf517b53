// Package worker implements the per-worker hot loop of the CPU CREATE2
// search engine: partitioner -> preimage builder -> hash+score kernel
// -> aggregator offer, repeat.
package worker

import (
	"hash"
	"sync/atomic"

	"github.com/KONFeature/create2crunch/internal/crypto"
	"github.com/KONFeature/create2crunch/pkg/aggregator"
	"github.com/KONFeature/create2crunch/pkg/partition"
	"github.com/KONFeature/create2crunch/pkg/types"
)

// Worker drives one CPU thread's slice of the salt space. It owns every
// buffer it touches so the hot loop never allocates.
type Worker struct {
	cfg types.RunConfig
	agg *aggregator.Aggregator
	pw  *partition.Worker

	hasher      hash.Hash
	preimageBuf [crypto.PreimageLen]byte
	hashBuf     [32]byte
	addrBuf     [20]byte

	attempts int64
}

// New creates a Worker bound to one partition of the salt space and one
// session's aggregator.
func New(cfg types.RunConfig, agg *aggregator.Aggregator, pw *partition.Worker) *Worker {
	return &Worker{
		cfg:    cfg,
		agg:    agg,
		pw:     pw,
		hasher: crypto.NewHasher(),
	}
}

// Attempts returns the number of hashes this worker has computed so
// far. Safe to call concurrently with RunWorkUnit for progress reporting.
func (w *Worker) Attempts() int64 {
	return atomic.LoadInt64(&w.attempts)
}

// RunWorkUnit enumerates one full work unit (partition.WorkUnitSize
// nonce12 values) and offers every reportable candidate to the
// aggregator. It returns early if the aggregator decides to stop. This
// is the granularity at which callers should poll for cancellation, so
// a stop request is observed within at most 2^16 hashes.
func (w *Worker) RunWorkUnit() {
	iter := w.pw.NextWorkUnit()
	for lc := 0; lc < partition.WorkUnitSize; lc++ {
		nonce12 := w.pw.Nonce12(iter, uint16(lc))
		crypto.BuildPreimage(w.preimageBuf[:], w.cfg.FactoryAddress, w.cfg.CallingAddress, nonce12, w.cfg.InitCodeHash)
		crypto.HashAddress(w.hasher, w.preimageBuf[:], w.hashBuf[:], w.addrBuf[:])
		atomic.AddInt64(&w.attempts, 1)

		leading, total := crypto.Score(w.addrBuf[:])
		if !w.cfg.Reportable(leading, total) {
			continue
		}
		// Standalone mode (early_stop=false) prunes against the
		// running best: only a candidate strictly worse than the
		// best already seen may be dropped without emission. Ties
		// are still offered so the aggregator's tie-break picks the
		// same winner the GPU engine's unpruned offers would yield.
		// Pipeline mode keeps every reportable candidate since the
		// first one ends the session anyway.
		reward := types.Reward(leading, total)
		if !w.cfg.EarlyStop {
			if best := w.agg.BestReward(); best >= 0 && reward < best {
				continue
			}
		}

		salt := crypto.Salt(w.preimageBuf[:])
		var addr [20]byte
		copy(addr[:], w.addrBuf[:])
		w.agg.Offer(salt, addr, leading, total)

		if w.agg.ShouldStop() {
			return
		}
	}
}
