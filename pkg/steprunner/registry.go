package steprunner

import (
	"fmt"
	"sort"

	"github.com/arnavsurve/devgate/pkg/types"
)

type RunnerFactory func(ctx types.ExecutionContext) (StepRunner, error)

// registry stores each kind of step runner's factory function. GetRunner calls the appropriate StepRunner
// factory function to yield a new instance of that StepRunner
var registry = map[string]RunnerFactory{}

// This is called in each step runner's init() function to register its factory function with the registry.
// This allows GetRunner to return an instance of the appropriate StepRunner, using the registry to resolve
// the runner's factory.
func RegisterRunnerFactory(kind string, factory RunnerFactory) {
	registry[kind] = factory
}

// GetRunner returns an instance of the appropriate StepRunner based on the step's 'kind' field,
// calling the corresponding runner's factory function from the registry.
func GetRunner(ctx types.ExecutionContext) (StepRunner, error) {
	kind := ctx.Step.Kind
	factory, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("no runner registered for kind: %s", kind)
	}

	return factory(ctx)
}

// IsRegistered reports whether a factory exists for kind.
func IsRegistered(kind string) bool {
	_, ok := registry[kind]
	return ok
}

// Kinds lists the registered runner kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
