package types

import "io"

// ExecutionContext contains the context needed for step execution
type ExecutionContext struct {
	Step       Step
	Logger     Logger
	ProjectDir string
	VenvDir    string
	// Env holds extra KEY=VALUE entries appended to the process environment.
	Env []string

	// Attach connects the process to the given streams instead of capturing
	// its output. Used for long-running processes such as the dev server.
	Attach bool
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Step is a single tool invocation handed to a runner.
type Step struct {
	ID      string        `yaml:"id"`
	Kind    string        `yaml:"kind"`
	Command *CommandBlock `yaml:"run"`
}

// CommandBlock describes how to invoke an external tool. Which fields are
// meaningful depends on the runner kind.
type CommandBlock struct {
	Args        []string `yaml:"args,omitempty"`
	Module      string   `yaml:"module,omitempty"`
	Path        string   `yaml:"path,omitempty"`
	Inline      string   `yaml:"inline,omitempty"`
	Interpreter string   `yaml:"interpreter,omitempty"`
}
