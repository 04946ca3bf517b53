// Package config parses and validates the standalone-mode CLI
// arguments: three fixed-length hex arguments plus three optional
// numeric ones.
package config

import (
	"fmt"
	"strconv"

	icrypto "github.com/KONFeature/create2crunch/internal/crypto"
	"github.com/KONFeature/create2crunch/pkg/types"
)

// DefaultLeadingZeroesThreshold and DefaultTotalZeroesThreshold match
// the values the original CLI defaults to when omitted.
const (
	DefaultLeadingZeroesThreshold = 3
	DefaultTotalZeroesThreshold   = 5
)

// ParseArgs parses standalone-mode positional arguments into a
// types.RunConfig. args excludes the program name, i.e. args[0] is the
// factory address hex string.
//
//	factory_hex caller_hex init_hash_hex [gpu_device=255] [leading=3] [total=5]
func ParseArgs(args []string) (types.RunConfig, error) {
	var cfg types.RunConfig

	if len(args) < 3 {
		return cfg, fmt.Errorf("expected at least 3 arguments (factory_address caller_address init_code_hash), got %d", len(args))
	}

	factory, err := icrypto.HexToAddress(args[0])
	if err != nil {
		return cfg, fmt.Errorf("invalid factory_address argument: %w", err)
	}
	caller, err := icrypto.HexToAddress(args[1])
	if err != nil {
		return cfg, fmt.Errorf("invalid calling_address argument: %w", err)
	}
	initHash, err := icrypto.HexToHash32(args[2])
	if err != nil {
		return cfg, fmt.Errorf("invalid init_code_hash argument: %w", err)
	}

	gpuDevice := uint64(types.NoGPUDevice)
	if len(args) > 3 && args[3] != "" {
		gpuDevice, err = strconv.ParseUint(args[3], 10, 8)
		if err != nil {
			return cfg, fmt.Errorf("invalid gpu_device value: %w", err)
		}
	}

	leading := uint64(DefaultLeadingZeroesThreshold)
	if len(args) > 4 && args[4] != "" {
		leading, err = strconv.ParseUint(args[4], 10, 8)
		if err != nil {
			return cfg, fmt.Errorf("invalid leading zeroes threshold value: %w", err)
		}
	}

	total := uint64(DefaultTotalZeroesThreshold)
	if len(args) > 5 && args[5] != "" {
		total, err = strconv.ParseUint(args[5], 10, 8)
		if err != nil {
			return cfg, fmt.Errorf("invalid total zeroes threshold value: %w", err)
		}
	}

	cfg = types.RunConfig{
		FactoryAddress:         factory,
		CallingAddress:         caller,
		InitCodeHash:           initHash,
		GPUDevice:              uint8(gpuDevice),
		LeadingZeroesThreshold: uint8(leading),
		TotalZeroesThreshold:   uint8(total),
		// Standalone mode runs until interrupted, printing every
		// improving candidate.
		EarlyStop: false,
	}
	if err := cfg.Validate(); err != nil {
		return types.RunConfig{}, err
	}
	return cfg, nil
}
