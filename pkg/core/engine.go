package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavsurve/devgate/pkg/steprunner"
	"github.com/arnavsurve/devgate/pkg/types"
	"github.com/google/uuid"
)

// Confirmer asks the operator a yes/no question. An error means no answer
// could be obtained, for example on EOF or interruption.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// RunnerResolver returns the runner for a single invocation.
type RunnerResolver func(ctx types.ExecutionContext) (steprunner.StepRunner, error)

// GateEngine runs the pre-commit pipeline: each step in order, each
// step's result interpreted through its policy.
type GateEngine struct {
	Logger     types.Logger
	Confirmer  Confirmer
	Resolve    RunnerResolver
	ProjectDir string
	VenvDir    string
	Env        []string
	RunID      string
}

func NewGateEngine(logger types.Logger, confirmer Confirmer) *GateEngine {
	return &GateEngine{
		Logger:    logger,
		Confirmer: confirmer,
		Resolve:   steprunner.GetRunner,
	}
}

// decision is what a policy handler concludes about a step with findings.
type decision struct {
	halt    bool
	outcome Outcome
	reason  string
}

var proceed = decision{}

type policyHandler func(e *GateEngine, ctx context.Context, step Step, report *StepReport) decision

var policyHandlers = map[Policy]policyHandler{
	PolicyAdvisory:             (*GateEngine).advise,
	PolicyGateWithConfirmation: (*GateEngine).confirmGate,
	PolicyFatal:                (*GateEngine).enforce,
}

// ExecutePipeline runs steps in order until one halts the run. Steps never
// reached are reported as skipped.
func (e *GateEngine) ExecutePipeline(ctx context.Context, steps []Step) *PipelineResult {
	start := time.Now()
	result := &PipelineResult{RunID: e.RunID, Outcome: OutcomeProceed}
	if result.RunID == "" {
		result.RunID = uuid.New().String()
	}

	e.Logger.Info().Str("run_id", result.RunID).Msgf("Starting pre-commit gate (%d steps)", len(steps))

	for i, step := range steps {
		var report StepReport
		var d decision

		if err := ctx.Err(); err != nil {
			report = StepReport{ID: step.ID, Title: step.Title, Policy: step.Policy, Status: StatusCancelled, Err: err}
			d = decision{halt: true, outcome: OutcomeAborted, reason: "interrupted before the step started"}
		} else {
			report = e.ExecuteStep(ctx, step)
			d = e.decide(ctx, step, &report)
		}

		result.Reports = append(result.Reports, report)
		if report.Status == StatusOverridden {
			result.Overridden = true
		}

		if d.halt {
			result.Outcome = d.outcome
			result.DecidedBy = step.ID
			result.Reason = d.reason
			for _, rest := range steps[i+1:] {
				result.Reports = append(result.Reports, StepReport{ID: rest.ID, Title: rest.Title, Policy: rest.Policy, Status: StatusSkipped})
			}
			break
		}
	}

	result.Duration = time.Since(start)
	e.Logger.Info().
		Str("run_id", result.RunID).
		Str("outcome", result.Outcome.String()).
		Dur("duration", result.Duration).
		Msg("Pre-commit gate finished")
	return result
}

// ExecuteStep runs every invocation of a step and records the first nonzero
// exit status. An invocation that cannot run stops the step.
func (e *GateEngine) ExecuteStep(ctx context.Context, step Step) (report StepReport) {
	report = StepReport{ID: step.ID, Title: step.Title, Policy: step.Policy}
	logger := e.Logger.With().Str("step_id", step.ID).Str("policy", step.Policy.String()).Logger()

	logger.Info().Msgf("Running step %q", step.Title)
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	invocations := step.Invocations()
	if len(invocations) == 0 {
		report.Status = StatusInfraError
		report.Err = fmt.Errorf("step %q has nothing to run", step.ID)
		return report
	}

	resolve := e.Resolve
	if resolve == nil {
		resolve = steprunner.GetRunner
	}

	for _, inv := range invocations {
		execCtx := types.ExecutionContext{
			Step:       inv,
			Logger:     logger.With().Str("kind", inv.Kind).Logger(),
			ProjectDir: e.ProjectDir,
			VenvDir:    e.VenvDir,
			Env:        e.Env,
		}

		runner, err := resolve(execCtx)
		if err != nil {
			report.Status = StatusInfraError
			report.Err = fmt.Errorf("getting runner for step %q: %w", step.ID, err)
			return report
		}
		if err := runner.Validate(); err != nil {
			report.Status = StatusInfraError
			report.Err = fmt.Errorf("validating step %q: %w", step.ID, err)
			return report
		}

		res, err := runner.Run(ctx)
		if err != nil {
			report.Status = StatusInfraError
			if steprunner.IsInterrupted(err) || errors.Is(err, context.Canceled) {
				report.Status = StatusCancelled
			}
			report.Err = fmt.Errorf("running step %q: %w", step.ID, err)
			return report
		}
		if res.Failed() && report.ExitCode == 0 {
			report.ExitCode = res.ExitCode
		}
	}

	report.Status = StatusPassed
	if report.ExitCode != 0 {
		report.Status = StatusFinding
	}
	return report
}

// decide applies the failure model. Errors take precedence over policy: an
// interrupted tool aborts, a tool that could not run is fatal.
func (e *GateEngine) decide(ctx context.Context, step Step, report *StepReport) decision {
	logger := e.Logger.With().Str("step_id", step.ID).Logger()

	switch report.Status {
	case StatusCancelled:
		logger.Warn().Err(report.Err).Msg("Step interrupted")
		return decision{halt: true, outcome: OutcomeAborted, reason: "interrupted while running " + step.Title}
	case StatusInfraError:
		logger.Error().Err(report.Err).Msg("Tool could not be run")
		return decision{halt: true, outcome: OutcomeFatal, reason: fmt.Sprintf("infrastructure error: %v", report.Err)}
	case StatusPassed:
		logger.Info().Msgf("Step %q passed", step.Title)
		return proceed
	}

	handler, ok := policyHandlers[step.Policy]
	if !ok {
		report.Status = StatusFailed
		return decision{halt: true, outcome: OutcomeFatal, reason: fmt.Sprintf("unknown policy %s", step.Policy)}
	}
	return handler(e, ctx, step, report)
}

func (e *GateEngine) advise(_ context.Context, step Step, report *StepReport) decision {
	e.Logger.Warn().
		Str("step_id", step.ID).
		Int("exit_code", report.ExitCode).
		Msgf("Step %q reported issues; continuing, this step never blocks", step.Title)
	return proceed
}

func (e *GateEngine) confirmGate(ctx context.Context, step Step, report *StepReport) decision {
	logger := e.Logger.With().Str("step_id", step.ID).Logger()
	logger.Warn().Int("exit_code", report.ExitCode).Msgf("Step %q reported issues", step.Title)

	if e.Confirmer == nil {
		return decision{halt: true, outcome: OutcomeAborted, reason: "unresolved lint issues and no way to ask for confirmation"}
	}

	prompt := fmt.Sprintf("%s reported unresolved issues (exit %d). Commit anyway? [y/N] ", step.Title, report.ExitCode)
	ok, err := e.Confirmer.Confirm(ctx, prompt)
	if err != nil {
		logger.Warn().Err(err).Msg("No confirmation received")
		return decision{halt: true, outcome: OutcomeAborted, reason: "unresolved lint issues, confirmation cancelled"}
	}
	if !ok {
		logger.Warn().Msg("Operator declined to commit with unresolved issues")
		return decision{halt: true, outcome: OutcomeAborted, reason: "unresolved lint issues, operator declined to override"}
	}

	report.Status = StatusOverridden
	logger.Warn().Msg("Operator chose to commit despite unresolved issues")
	return proceed
}

func (e *GateEngine) enforce(_ context.Context, step Step, report *StepReport) decision {
	report.Status = StatusFailed
	e.Logger.Error().
		Str("step_id", step.ID).
		Int("exit_code", report.ExitCode).
		Msgf("Step %q failed", step.Title)
	return decision{halt: true, outcome: OutcomeFatal, reason: fmt.Sprintf("%s reported issues (exit %d)", step.Title, report.ExitCode)}
}
