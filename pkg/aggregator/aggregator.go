// Package aggregator implements the shared sink CPU and GPU engines
// offer candidates to: deduplicating by salt, tracking the running
// best and deciding when a session may stop early.
package aggregator

import (
	"sync"

	"github.com/KONFeature/create2crunch/pkg/types"
)

// Aggregator merges candidates from any number of concurrent engine
// workers. It is safe for concurrent use.
type Aggregator struct {
	cfg       types.RunConfig
	onImprove func(types.Candidate)

	mu      sync.Mutex
	best    *types.Candidate
	all     []types.Candidate
	seen    map[[32]byte]struct{}
	stopped bool
}

// New creates an Aggregator bound to one run's thresholds and early-stop
// policy. onImprove, if non-nil, is called (outside the aggregator's
// lock) every time a newly offered candidate becomes the new best;
// standalone mode uses it to print each improvement.
func New(cfg types.RunConfig, onImprove func(types.Candidate)) *Aggregator {
	return &Aggregator{cfg: cfg, onImprove: onImprove, seen: make(map[[32]byte]struct{})}
}

// Offer accepts a raw (address, salt) pair, scores it, and — if
// reportable and not a duplicate of an earlier offer — records it and
// updates the running best. It returns the Candidate and whether it
// was accepted. A salt offered twice to the same Aggregator is accepted
// only the first time.
func (a *Aggregator) Offer(salt [32]byte, address [20]byte, leading, total int) (types.Candidate, bool) {
	if !a.cfg.Reportable(leading, total) {
		return types.Candidate{}, false
	}
	c := types.Candidate{
		Salt:    salt,
		Address: address,
		Leading: leading,
		Total:   total,
		Reward:  types.Reward(leading, total),
	}

	a.mu.Lock()
	if _, dup := a.seen[salt]; dup {
		a.mu.Unlock()
		return types.Candidate{}, false
	}
	a.seen[salt] = struct{}{}
	a.all = append(a.all, c)
	improved := a.best == nil || a.best.Less(c)
	if improved {
		best := c
		a.best = &best
	}
	if a.cfg.EarlyStop {
		a.stopped = true
	}
	a.mu.Unlock()

	if improved && a.onImprove != nil {
		a.onImprove(c)
	}
	return c, true
}

// Best returns the highest-reward candidate offered so far, or false if
// none have been.
func (a *Aggregator) Best() (types.Candidate, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.best == nil {
		return types.Candidate{}, false
	}
	return *a.best, true
}

// BestReward returns the current best candidate's reward, or -1 if none
// has been offered yet. Engines use this to prune candidates that can't
// possibly beat the running best without emitting them.
func (a *Aggregator) BestReward() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.best == nil {
		return -1
	}
	return a.best.Reward
}

// ShouldStop reports whether the session may halt: early_stop is set and
// at least one reportable candidate has been offered.
func (a *Aggregator) ShouldStop() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

// Drain returns every candidate accepted this session, for the output
// sink.
func (a *Aggregator) Drain() []types.Candidate {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.Candidate, len(a.all))
	copy(out, a.all)
	return out
}
