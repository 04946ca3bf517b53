// Package types holds the data model shared across the mining engines,
// the pipeline resolver and the output sink.
package types

import "fmt"

// RunConfig is an immutable mining request. Once constructed it is never
// mutated; every engine receives it by value.
type RunConfig struct {
	FactoryAddress [20]byte
	CallingAddress [20]byte
	InitCodeHash   [32]byte

	LeadingZeroesThreshold uint8 // 0..=20
	TotalZeroesThreshold   uint8 // 0..=20 or 255 (disabled)

	// EarlyStop, when true, tells the engine to halt as soon as one
	// reportable candidate has been offered to the aggregator (pipeline
	// mode). When false the engine runs until externally cancelled
	// (standalone mode).
	EarlyStop bool

	// GPUDevice selects the OpenCL device index; 255 means "use the CPU
	// engine".
	GPUDevice uint8
}

// NoTotalZeroesThreshold disables the total-zero-byte stop criterion.
const NoTotalZeroesThreshold uint8 = 255

// NoGPUDevice is the sentinel GPU device index meaning "run on CPU".
const NoGPUDevice uint8 = 255

// Validate enforces the threshold bounds.
func (c RunConfig) Validate() error {
	if c.LeadingZeroesThreshold > 20 {
		return fmt.Errorf("invalid leading zeroes threshold %d (valid: 0..=20)", c.LeadingZeroesThreshold)
	}
	if c.TotalZeroesThreshold > 20 && c.TotalZeroesThreshold != NoTotalZeroesThreshold {
		return fmt.Errorf("invalid total zeroes threshold %d (valid: 0..=20 | 255)", c.TotalZeroesThreshold)
	}
	return nil
}

// Reportable reports whether leading/total satisfy both threshold
// predicates.
func (c RunConfig) Reportable(leading, total int) bool {
	if leading < int(c.LeadingZeroesThreshold) {
		return false
	}
	if c.TotalZeroesThreshold == NoTotalZeroesThreshold {
		return true
	}
	return total >= int(c.TotalZeroesThreshold)
}

// Candidate is a successful find: a salt that derives an address meeting
// the configured thresholds.
type Candidate struct {
	Salt    [32]byte
	Address [20]byte
	Leading int
	Total   int
	Reward  int
}

// Reward computes leading*20 + total, the scalar ranking used by the
// aggregator.
func Reward(leading, total int) int {
	return leading*20 + total
}

// Less orders candidates worst-to-best: c.Less(o) means o is the better
// candidate (higher reward, then higher leading, then lexicographically
// smaller salt so replays pick the same winner).
func (c Candidate) Less(o Candidate) bool {
	if c.Reward != o.Reward {
		return c.Reward < o.Reward
	}
	if c.Leading != o.Leading {
		return c.Leading < o.Leading
	}
	// lexicographically smaller salt wins, so the larger salt is "less"
	for i := range c.Salt {
		if c.Salt[i] != o.Salt[i] {
			return c.Salt[i] > o.Salt[i]
		}
	}
	return false
}

// StopThresholds is the per-target stop criterion from the pipeline
// config file; at least one field must be set (enforced by
// pkg/pipeline.LoadConfigFile).
type StopThresholds struct {
	LeadingZeroes *uint8
	TotalZeroes   *uint8
}

// Target describes one pipeline entry: a bin file under bin_folder whose
// hex init-code may reference other targets' placeholders.
type Target struct {
	Name            string
	PlaceholderName string // empty if this target defines no placeholder
	StopThresholds  StopThresholds
}
