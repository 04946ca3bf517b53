//go:build !opencl

package gpu

import (
	"context"
	"fmt"

	"github.com/KONFeature/create2crunch/internal/logger"
	"github.com/KONFeature/create2crunch/pkg/types"
)

// Search reports an engine fault: this binary was built without the
// "opencl" build tag, so no OpenCL device driver is linked in. Build
// with `-tags opencl` (and OpenCL headers/library available) to enable
// GPU search.
func (e Engine) Search(ctx context.Context, cfg types.RunConfig, log *logger.Logger) ([]types.Candidate, *types.Candidate, error) {
	return nil, nil, fmt.Errorf("GPU engine fault: binary built without OpenCL support (rebuild with -tags opencl); requested device %d", e.Device)
}
