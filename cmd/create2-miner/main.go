// Command create2-miner mines CREATE2 vanity salts, standalone or as a
// multi-target pipeline driven by a TOML config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KONFeature/create2crunch/internal/config"
	logpkg "github.com/KONFeature/create2crunch/internal/logger"
	"github.com/KONFeature/create2crunch/internal/output"
	"github.com/KONFeature/create2crunch/pkg/engine"
	"github.com/KONFeature/create2crunch/pkg/engine/cpu"
	"github.com/KONFeature/create2crunch/pkg/engine/gpu"
	"github.com/KONFeature/create2crunch/pkg/pipeline"
	"github.com/KONFeature/create2crunch/pkg/types"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "create2-miner <factory_hex> <caller_hex> <init_hash_hex> [gpu_device] [leading] [total]",
		Short: "CREATE2 vanity address miner",
		Long: `Mines the 32-byte CREATE2 salt space for addresses with many leading
and/or total zero bytes. Run with a single TOML config file argument for
pipeline mode (multi-target, placeholder-resolving); otherwise the first
three arguments are read as the factory address, calling address and
init-code hash, all raw hex.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args)
		},
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	log := logpkg.New()

	if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
		return runPipeline(ctx, args[0], log)
	}
	return runStandalone(ctx, args, log)
}

func runStandalone(ctx context.Context, args []string, log *logpkg.Logger) error {
	cfg, err := config.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	log.Printf("starting standalone mining (leading>=%d, total>=%d, gpu_device=%d)",
		cfg.LeadingZeroesThreshold, cfg.TotalZeroesThreshold, cfg.GPUDevice)

	eng := selectEngine(cfg.GPUDevice, 5*time.Second)
	all, best, err := eng.Search(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("engine error: %w", err)
	}

	log.Printf("session ended with %d reportable candidate(s)", len(all))
	if best == nil {
		log.Println("no match found.")
		return nil
	}
	log.Printf("best: address=%x salt=%x reward=%d (leading=%d / total=%d)",
		best.Address, best.Salt, best.Reward, best.Leading, best.Total)
	return nil
}

func runPipeline(ctx context.Context, configPath string, log *logpkg.Logger) error {
	cfgFile, err := pipeline.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	resolver, err := pipeline.NewResolver(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	gpuDevice := types.NoGPUDevice
	if cfgFile.GPUDevice != nil {
		gpuDevice = *cfgFile.GPUDevice
	}
	eng := selectEngine(gpuDevice, 0)
	sink := output.New("")

	if err := resolver.Run(ctx, eng, sink, log); err != nil {
		return fmt.Errorf("pipeline error: %w", err)
	}
	log.Println("pipeline completed")
	return nil
}

func selectEngine(gpuDevice uint8, progressInterval time.Duration) engine.Engine {
	if gpuDevice == types.NoGPUDevice {
		return cpu.Engine{ProgressInterval: progressInterval}
	}
	return gpu.Engine{Device: gpuDevice, ProgressInterval: progressInterval}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM so every
// engine worker winds down at its next work-unit boundary.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
