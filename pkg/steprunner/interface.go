package steprunner

import (
	"context"

	"github.com/arnavsurve/devgate/pkg/types"
)

// StepRunner invokes one external tool. Run returns a result whenever the
// tool process ran to completion, whatever its exit status. An error means
// the tool could not be run or was interrupted.
type StepRunner interface {
	Validate() error
	Run(ctx context.Context) (*types.StepResult, error)
}
