// Package cpu implements the CPU search engine: a per-goroutine
// partition of the salt space run across local cores, coordinated
// through a shared aggregator.
package cpu

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KONFeature/create2crunch/internal/logger"
	"github.com/KONFeature/create2crunch/pkg/aggregator"
	"github.com/KONFeature/create2crunch/pkg/partition"
	"github.com/KONFeature/create2crunch/pkg/types"
	"github.com/KONFeature/create2crunch/pkg/worker"
)

// Engine runs the CREATE2 search across Workers goroutines, one per
// logical core by default.
type Engine struct {
	// Workers is the number of worker goroutines. Zero or negative
	// means runtime.NumCPU().
	Workers int

	// ProgressInterval, if non-zero, logs attempts/best candidate at
	// that cadence (standalone mode's periodic status line).
	ProgressInterval time.Duration
}

// Search implements engine.Engine.
func (e Engine) Search(ctx context.Context, cfg types.RunConfig, log *logger.Logger) ([]types.Candidate, *types.Candidate, error) {
	numWorkers := e.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	session, err := partition.NewSession()
	if err != nil {
		return nil, nil, err
	}
	agg := aggregator.New(cfg, func(c types.Candidate) {
		if log != nil {
			log.Found(c)
		}
	})

	workers := make([]*worker.Worker, numWorkers)
	for i := range workers {
		workers[i] = worker.New(cfg, agg, session.Worker(uint16(i)))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				w.RunWorkUnit()
				if agg.ShouldStop() {
					return nil
				}
			}
		})
	}

	if log != nil && e.ProgressInterval > 0 {
		stop := make(chan struct{})
		defer close(stop)
		go e.logProgress(log, agg, workers, stop)
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	all := agg.Drain()
	best, ok := agg.Best()
	if !ok {
		return all, nil, nil
	}
	return all, &best, nil
}

func (e Engine) logProgress(log *logger.Logger, agg *aggregator.Aggregator, workers []*worker.Worker, stop <-chan struct{}) {
	ticker := time.NewTicker(e.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			var total int64
			for _, w := range workers {
				total += w.Attempts()
			}
			best, ok := agg.Best()
			if ok {
				log.Progress("progress", total, &best)
			} else {
				log.Progress("progress", total, nil)
			}
		}
	}
}
