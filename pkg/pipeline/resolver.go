package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KONFeature/create2crunch/internal/crypto"
	"github.com/KONFeature/create2crunch/internal/logger"
	"github.com/KONFeature/create2crunch/internal/output"
	"github.com/KONFeature/create2crunch/pkg/engine"
	"github.com/KONFeature/create2crunch/pkg/types"
)

// Resolver drives a multi-target pipeline session: it scans remaining
// targets, mines every one whose placeholders are all resolved,
// records the resulting address under the target's placeholder name,
// and repeats until every target is processed or a full pass makes no
// progress.
type Resolver struct {
	cfg     *ConfigFile
	factory [20]byte
	caller  [20]byte
}

// NewResolver validates the factory/calling address hex from cfg and
// returns a Resolver ready to run.
func NewResolver(cfg *ConfigFile) (*Resolver, error) {
	factory, err := crypto.HexToAddress(cfg.FactoryAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid factory_address in config: %w", err)
	}
	caller, err := crypto.HexToAddress(cfg.CallingAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid calling_address in config: %w", err)
	}
	return &Resolver{cfg: cfg, factory: factory, caller: caller}, nil
}

// Run processes every target in r.cfg.Targets, using eng to mine each
// one and sink to persist results. It returns an error if the target
// graph is unsatisfiable or an engine fault occurs.
func (r *Resolver) Run(ctx context.Context, eng engine.Engine, sink *output.Sink, log *logger.Logger) error {
	if err := sink.WriteStart(time.Now()); err != nil {
		return err
	}

	computedHex := map[string]string{} // placeholder_name -> lowercase 40-hex, for substitution
	remaining := append([]TargetConfig{}, r.cfg.Targets...)

	for len(remaining) > 0 {
		var next []TargetConfig
		progressed := false

		for _, target := range remaining {
			hexText, err := readBinFile(r.cfg.BinFolder, target.Name)
			if err != nil {
				return err
			}

			if !allResolved(placeholderNames(hexText), computedHex) {
				next = append(next, target)
				continue
			}

			if log != nil {
				log.Printf("processing target: %s", target.Name)
			}

			substituted := substitutePlaceholders(hexText, computedHex)
			initCode, err := decodeInitCode(substituted)
			if err != nil {
				return fmt.Errorf("target %q: %w", target.Name, err)
			}
			var initHash [32]byte
			copy(initHash[:], crypto.Keccak256(initCode))

			runCfg := types.RunConfig{
				FactoryAddress: r.factory,
				CallingAddress: r.caller,
				InitCodeHash:   initHash,
				EarlyStop:      true,
				GPUDevice:      r.gpuDevice(),
			}
			stop := target.TargetStopThresholds()
			if stop.LeadingZeroes != nil {
				runCfg.LeadingZeroesThreshold = *stop.LeadingZeroes
			}
			if stop.TotalZeroes != nil {
				runCfg.TotalZeroesThreshold = *stop.TotalZeroes
			} else {
				runCfg.TotalZeroesThreshold = types.NoTotalZeroesThreshold
			}
			if err := runCfg.Validate(); err != nil {
				return fmt.Errorf("target %q: %w", target.Name, err)
			}

			_, best, err := eng.Search(ctx, runCfg, log)
			if err != nil {
				return fmt.Errorf("target %q: %w", target.Name, err)
			}
			if best == nil {
				return fmt.Errorf("target %q: mining was cancelled before a candidate was found", target.Name)
			}

			if err := sink.WriteTargetResult(target.Name, initHash, *best); err != nil {
				return err
			}

			if target.PlaceholderName != "" {
				computedHex[target.PlaceholderName] = crypto.AddressToHex(best.Address)
			}
			progressed = true
		}

		remaining = next
		if !progressed && len(remaining) > 0 {
			names := make([]string, len(remaining))
			for i, t := range remaining {
				names[i] = t.Name
			}
			return fmt.Errorf("unable to process all targets: %s", strings.Join(names, ", "))
		}
	}

	return sink.WriteEnd(time.Now())
}

func (r *Resolver) gpuDevice() uint8 {
	if r.cfg.GPUDevice != nil {
		return *r.cfg.GPUDevice
	}
	return types.NoGPUDevice
}

func allResolved(names []string, computed map[string]string) bool {
	for _, n := range names {
		if _, ok := computed[n]; !ok {
			return false
		}
	}
	return true
}
