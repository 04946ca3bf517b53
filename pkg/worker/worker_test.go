package worker

import (
	"testing"

	"github.com/KONFeature/create2crunch/internal/crypto"
	"github.com/KONFeature/create2crunch/pkg/aggregator"
	"github.com/KONFeature/create2crunch/pkg/partition"
	"github.com/KONFeature/create2crunch/pkg/types"
)

func newTestWorker(cfg types.RunConfig, agg *aggregator.Aggregator) *Worker {
	session, err := partition.NewSession()
	if err != nil {
		panic(err)
	}
	return New(cfg, agg, session.Worker(0))
}

func TestRunWorkUnitCoversExactlyOneWorkUnit(t *testing.T) {
	cfg := types.RunConfig{
		LeadingZeroesThreshold: 99, // unreachable, so nothing stops the loop early
		TotalZeroesThreshold:   types.NoTotalZeroesThreshold,
	}
	agg := aggregator.New(cfg, nil)
	w := newTestWorker(cfg, agg)

	w.RunWorkUnit()

	if got := w.Attempts(); got != partition.WorkUnitSize {
		t.Errorf("Attempts() = %d, want %d", got, partition.WorkUnitSize)
	}
}

func TestRunWorkUnitStopsEarlyOnEarlyStopMatch(t *testing.T) {
	cfg := types.RunConfig{
		LeadingZeroesThreshold: 0, // every candidate is reportable
		TotalZeroesThreshold:   types.NoTotalZeroesThreshold,
		EarlyStop:              true,
	}
	agg := aggregator.New(cfg, nil)
	w := newTestWorker(cfg, agg)

	w.RunWorkUnit()

	if got := w.Attempts(); got == 0 || got > partition.WorkUnitSize {
		t.Errorf("Attempts() = %d, want in (0, %d]", got, partition.WorkUnitSize)
	}
	if !agg.ShouldStop() {
		t.Error("aggregator should have stopped after the first reportable candidate")
	}
	if _, ok := agg.Best(); !ok {
		t.Error("Best() reported nothing despite early stop")
	}
}

func TestRunWorkUnitPrunesWithoutEarlyStop(t *testing.T) {
	cfg := types.RunConfig{
		LeadingZeroesThreshold: 0,
		TotalZeroesThreshold:   types.NoTotalZeroesThreshold,
		EarlyStop:              false,
	}
	agg := aggregator.New(cfg, nil)
	w := newTestWorker(cfg, agg)

	w.RunWorkUnit()

	// Standalone mode never stops the aggregator itself, regardless of
	// how many candidates were reportable.
	if agg.ShouldStop() {
		t.Error("aggregator stopped despite early_stop=false")
	}
	if got := w.Attempts(); got != partition.WorkUnitSize {
		t.Errorf("Attempts() = %d, want %d (a full work unit, pruning only skips reporting)", got, partition.WorkUnitSize)
	}
}

func TestRunWorkUnitProducesAddressesMatchingBuildPreimage(t *testing.T) {
	var factory, caller [20]byte
	factory[0] = 0xaa
	var initHash [32]byte
	initHash[0] = 0xbb

	cfg := types.RunConfig{
		FactoryAddress:         factory,
		CallingAddress:         caller,
		InitCodeHash:           initHash,
		LeadingZeroesThreshold: 0,
		TotalZeroesThreshold:   types.NoTotalZeroesThreshold,
		EarlyStop:              true,
	}
	agg := aggregator.New(cfg, nil)
	w := newTestWorker(cfg, agg)
	w.RunWorkUnit()

	best, ok := agg.Best()
	if !ok {
		t.Fatal("no candidate produced")
	}

	buf := make([]byte, crypto.PreimageLen)
	crypto.BuildPreimage(buf, factory, caller, [12]byte{}, initHash) // nonce unknown, recomputed from salt below
	copy(buf[21:53], best.Salt[:])
	want := crypto.Keccak256(buf)[12:32]
	if string(want) != string(best.Address[:]) {
		t.Errorf("aggregated candidate address does not match its own salt under BuildPreimage/Keccak256")
	}
}
