package cpu

import (
	"context"
	"testing"
	"time"

	"github.com/KONFeature/create2crunch/pkg/types"
)

func TestSearchEarlyStopReturnsOneCandidate(t *testing.T) {
	cfg := types.RunConfig{
		LeadingZeroesThreshold: 0, // trivially reportable, so this finishes fast
		TotalZeroesThreshold:   types.NoTotalZeroesThreshold,
		EarlyStop:              true,
		GPUDevice:              types.NoGPUDevice,
	}
	eng := Engine{Workers: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	all, best, err := eng.Search(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if best == nil {
		t.Fatal("Search() returned no best candidate")
	}
	if len(all) == 0 {
		t.Error("Search() returned no reportable candidates")
	}
	if best.Leading < 0 {
		t.Errorf("best.Leading = %d, want >= 0", best.Leading)
	}
}

// A leading-zero-byte hit has probability 1/256 per hash, so a single
// 2^16-hash work unit misses with probability under 1e-100. Any failure
// here points at the scoring or threshold gate, not bad luck.
func TestSearchFindsLeadingZeroByte(t *testing.T) {
	cfg := types.RunConfig{
		LeadingZeroesThreshold: 1,
		TotalZeroesThreshold:   types.NoTotalZeroesThreshold,
		EarlyStop:              true,
		GPUDevice:              types.NoGPUDevice,
	}
	eng := Engine{Workers: 4}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, best, err := eng.Search(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if best == nil {
		t.Fatal("Search() returned no best candidate")
	}
	if best.Leading < 1 {
		t.Errorf("best.Leading = %d, want >= 1", best.Leading)
	}
	if best.Address[0] != 0 {
		t.Errorf("best.Address[0] = %#x, want 0x00", best.Address[0])
	}
}

func TestSearchRespectsContextCancellation(t *testing.T) {
	cfg := types.RunConfig{
		LeadingZeroesThreshold: 20, // unreachable within the test's time budget
		TotalZeroesThreshold:   types.NoTotalZeroesThreshold,
		EarlyStop:              false,
		GPUDevice:              types.NoGPUDevice,
	}
	eng := Engine{Workers: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := eng.Search(ctx, cfg, nil)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Search() did not return promptly after context cancellation")
	}
}

func TestSearchDefaultsWorkersToNumCPU(t *testing.T) {
	cfg := types.RunConfig{
		LeadingZeroesThreshold: 0,
		TotalZeroesThreshold:   types.NoTotalZeroesThreshold,
		EarlyStop:              true,
		GPUDevice:              types.NoGPUDevice,
	}
	eng := Engine{} // Workers left at zero value

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, best, err := eng.Search(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if best == nil {
		t.Fatal("Search() returned no best candidate with default worker count")
	}
}
