// Package cli wires gotask's single-command surface through Cobra. Unlike
// the teacher's multi-subcommand tree, gotask has exactly one invocation
// shape (spec.md §6): `gotask [task-names...] -- [residual-args...]`, plus
// a handful of flags and pseudo-tasks that must be intercepted before the
// environment loader ever runs (original_source/src/task.rs's
// check_pre_env_task). Flag parsing is disabled on the root command for
// exactly that reason: the argument list is split on a literal "--" the way
// the Rust original does it, not the way pflag would.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gotask.dev/internal/exec"
	"gotask.dev/internal/system"
)

// exitError is a sentinel error carrying a specific process exit code, the
// same pattern as the teacher's internal/cli.exitError: RunE functions
// return it instead of calling os.Exit directly, so Execute is the only
// place that terminates the process.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:                "gotask [task...] -- [args...]",
		Short:              "discover, build, and run per-repository tasks",
		SilenceUsage:       true,
		SilenceErrors:      true,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, rawArgs []string) error {
			return run(version, rawArgs)
		},
	}
	return root
}

func run(version string, rawArgs []string) error {
	for _, a := range rawArgs {
		if a == "--" {
			break
		}
		switch a {
		case "--help", "-h":
			system.PrintHelp()
			return nil
		case "--version", "-v":
			fmt.Println(version)
			return nil
		}
	}

	tasks, args := splitArgs(rawArgs)

	for _, t := range tasks {
		if t == system.InitTaskName {
			if err := system.Init(); err != nil {
				return err
			}
			return nil
		}
	}

	if err := exec.Run(tasks, args, version); err != nil {
		return err
	}
	return nil
}

// splitArgs splits rawArgs on the first literal "--" into requested task
// names and residual arguments, mirroring env_loader.rs's CLI-argument loop.
func splitArgs(rawArgs []string) (tasks, args []string) {
	foundSep := false
	for _, a := range rawArgs {
		if !foundSep && a == "--" {
			foundSep = true
			continue
		}
		if foundSep {
			args = append(args, a)
		} else {
			tasks = append(tasks, a)
		}
	}
	return tasks, args
}

// Execute builds the command tree and runs it, translating a returned
// exitError into the matching process exit code. It is the sole caller of
// os.Exit in this package.
func Execute(version string) {
	cmd := newRootCmd(version)
	if err := cmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
