// Package engine defines the capability contract shared by the CPU and
// GPU search engines, so the pipeline resolver and the CLI can select
// one by device index alone.
package engine

import (
	"context"

	"github.com/KONFeature/create2crunch/internal/logger"
	"github.com/KONFeature/create2crunch/pkg/types"
)

// Engine searches the salt space for one RunConfig until ctx is
// cancelled, the aggregator's early-stop condition is met, or a fatal
// engine error occurs. It returns every reportable candidate found this
// session (the aggregator's drain), the highest-reward one, and any
// fatal error.
type Engine interface {
	Search(ctx context.Context, cfg types.RunConfig, log *logger.Logger) (all []types.Candidate, best *types.Candidate, err error)
}
