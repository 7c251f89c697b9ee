// Package exec runs the test command that flakeguard wraps. It is a thin wrapper around `os/exec` so that it can be
// swapped for a mock in tests.
package exec

import (
	"context"
	"os/exec"

	"github.com/rwx-research/flakeguard/internal/errors"
)

// Local runs commands on the local machine.
type Local struct{}

// NewCommand returns a new command that can then be executed.
func (l Local) NewCommand(ctx context.Context, cfg CommandConfig) (Command, error) {
	//nolint:gosec // Spawning a user-configurable sub-process is expected here.
	cmd := exec.CommandContext(ctx, cfg.Name, cfg.Args...)

	cmd.Stdin = cfg.Stdin
	cmd.Stderr = cfg.Stderr
	cmd.Stdout = cfg.Stdout

	if len(cfg.Env) > 0 {
		cmd.Env = append(cmd.Environ(), cfg.Env...)
	}

	return cmd, nil
}

// GetExitStatusFromError extracts the exit code from an error
func (l Local) GetExitStatusFromError(err error) (int, error) {
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return exitError.ExitCode(), nil
	}

	return 0, errors.NewInternalError("Expected error to be of type exec.ExitError, received %T", err)
}

// Run starts the command and waits for it. A command that ran but exited non-zero is not an error, its exit code is
// returned instead.
func Run(ctx context.Context, runner Runner, cfg CommandConfig) (int, error) {
	cmd, err := runner.NewCommand(ctx, cfg)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	if err := cmd.Start(); err != nil {
		return 0, errors.NewSystemError("Unable to start %q: %s", cfg.Name, err)
	}

	if err := cmd.Wait(); err != nil {
		exitCode, exitErr := runner.GetExitStatusFromError(err)
		if exitErr != nil {
			return 0, errors.NewSystemError("Unable to wait for %q: %s", cfg.Name, err)
		}

		return exitCode, nil
	}

	return 0, nil
}
