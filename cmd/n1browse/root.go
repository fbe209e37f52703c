package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

// reportedError marks an error the console has already shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	return &reportedError{err: err}
}

func newRootCmd(d *deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "n1browse [run] TASK",
		Short: "Autonomous browser agent driven by the Yutori n1 model",
		Long: `n1browse drives a remote Chromium (Bright Data Scraping Browser over CDP)
with the Yutori n1 model until the task is answered.

Bare arguments run a task: "n1browse <task>" is the same as "n1browse run <task>".`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("n1browse v{{.Version}}\n")

	root.AddCommand(
		newRunCmd(d),
		newSetupCmd(d),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "n1browse v%s\n", version)
		},
	}
}

// withDefaultCommand routes bare arguments to the run command.
func withDefaultCommand(root *cobra.Command, args []string) []string {
	if len(args) == 0 {
		return []string{"run"}
	}
	switch args[0] {
	case "-h", "--help", "--version", "help", "completion":
		return args
	}
	for _, c := range root.Commands() {
		if c.Name() == args[0] || c.HasAlias(args[0]) {
			return args
		}
	}
	return append([]string{"run"}, args...)
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, d *deps, args []string) int {
	root := newRootCmd(d)
	root.SetArgs(withDefaultCommand(root, args))
	root.SetIn(d.stdin)
	root.SetOut(d.stdout)
	root.SetErr(d.stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintf(d.stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
