package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/arnavsurve/devgate/pkg/confirm"
	"github.com/arnavsurve/devgate/pkg/core"
	"github.com/fatih/color"
)

type PreCommitCmd struct {
	Assume string `help:"Answer the lint confirmation without prompting (yes or no)." placeholder:"yes|no"`
}

func (p *PreCommitCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := g.open(true)
	defer s.Close()
	if err != nil {
		return &ExitError{Code: core.ExitFatal, Err: err}
	}

	var confirmer core.Confirmer = confirm.NewTerminal()
	if p.Assume != "" {
		static, err := confirm.ParseAssume(p.Assume)
		if err != nil {
			return &ExitError{Code: core.ExitFatal, Err: err}
		}
		confirmer = static
	}

	steps, err := s.cfg.GateSteps()
	if err != nil {
		return &ExitError{Code: core.ExitFatal, Err: err}
	}
	for _, w := range core.StepWarnings(steps) {
		s.logger.Warn().Msg(w)
	}

	engine := core.NewGateEngine(s.logger, confirmer)
	engine.ProjectDir = s.cfg.Dir
	engine.VenvDir = s.cfg.VenvDir()
	engine.RunID = s.runID

	result := engine.ExecutePipeline(ctx, steps)
	printSummary(os.Stderr, result)

	if result.Outcome != core.OutcomeProceed {
		return &ExitError{Code: result.ExitCode()}
	}
	return nil
}

func printSummary(w io.Writer, result *core.PipelineResult) {
	fmt.Fprintln(w)
	for _, rep := range result.Reports {
		fmt.Fprintln(w, statusColor(rep.Status).Sprint(statusMark(rep.Status)+" "+rep.SummaryLine()))
	}

	final := color.New(color.FgGreen, color.Bold)
	switch result.Outcome {
	case core.OutcomeAborted:
		final = color.New(color.FgYellow, color.Bold)
	case core.OutcomeFatal:
		final = color.New(color.FgRed, color.Bold)
	}
	fmt.Fprintln(w, final.Sprint(result.FinalMessage()))
}

func statusColor(status core.StepStatus) *color.Color {
	switch status {
	case core.StatusPassed:
		return color.New(color.FgGreen)
	case core.StatusFinding, core.StatusOverridden, core.StatusCancelled:
		return color.New(color.FgYellow)
	case core.StatusFailed, core.StatusInfraError:
		return color.New(color.FgRed)
	default:
		return color.New(color.Faint)
	}
}

func statusMark(status core.StepStatus) string {
	switch status {
	case core.StatusPassed:
		return "✔"
	case core.StatusFailed, core.StatusInfraError:
		return "✘"
	case core.StatusSkipped:
		return "-"
	default:
		return "!"
	}
}
