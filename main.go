package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/arnavsurve/devgate/cmd/cli"
)

var version = "dev"

type CLI struct {
	cli.Globals

	Init        cli.InitCmd        `cmd:"" help:"Create the virtual environment, install dependencies and the pre-commit hook."`
	Backend     cli.BackendCmd     `cmd:"" help:"Run the development server."`
	Format      cli.FormatCmd      `cmd:"" help:"Format the code (black, isort)."`
	LintFix     cli.LintFixCmd     `cmd:"" name:"lint-fix" help:"Apply automatic lint fixes (ruff --fix)."`
	Lint        cli.LintCmd        `cmd:"" help:"Check for lint issues (ruff)."`
	Test        cli.TestCmd        `cmd:"" help:"Run the test suite (pytest). Extra arguments are passed through."`
	Clean       cli.CleanCmd       `cmd:"" help:"Remove caches and build artefacts."`
	PreCommit   cli.PreCommitCmd   `cmd:"" name:"pre-commit" help:"Run the pre-commit gate: format, lint-fix, lint, typecheck."`
	InstallHook cli.InstallHookCmd `cmd:"" name:"install-hook" help:"Install the git pre-commit hook."`
	Validate    cli.ValidateCmd    `cmd:"" help:"Check the project configuration without running anything."`
	Help        cli.HelpCmd        `cmd:"" help:"Show this help."`

	Version kong.VersionFlag `help:"Print the version and exit."`
}

func main() {
	var c CLI
	ctx := kong.Parse(&c,
		kong.Name("devgate"),
		kong.Description("Developer workflow and pre-commit gate for Python services."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	err := ctx.Run(&c.Globals)

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(os.Stderr, "devgate: %v\n", exitErr.Err)
		}
		os.Exit(exitErr.Code)
	}
	ctx.FatalIfErrorf(err)
}
