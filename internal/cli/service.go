// Package cli holds the main business logic in our CLI. This is mainly:
// 1. Running the report pipeline: file sets, parsing, validation, extraction, reconciliation and quarantining.
// 2. User-friendly logging
// However, this package _does not_ implement the actual terminal UI. That part is handled by `cmd/flakeguard`.
package cli

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rwx-research/flakeguard/internal/backend"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/exec"
	"github.com/rwx-research/flakeguard/internal/fileset"
	"github.com/rwx-research/flakeguard/internal/fs"
)

// Service is the main CLI service.
type Service struct {
	Backend    backend.Client
	Log        *zap.SugaredLogger
	FileSystem fs.FileSystem
	TaskRunner exec.Runner
	// Now is used for timestamp validation. Defaults to time.Now.
	Now func() time.Time
	// Concurrency caps the number of files processed at once. Defaults to unbounded.
	Concurrency int
}

func (s Service) logError(err error) error {
	s.Log.Errorf(err.Error())
	return err
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}

	return time.Now()
}

// Test runs the test command and then quarantines its failures. The command's exit code is used as the prior exit
// code, and only reports written after the command started are considered. Unless one is given, the command's start
// time, end time and exit code become the test runner report of every file set.
func (s Service) Test(ctx context.Context, cfg TestConfig) error {
	if err := cfg.Validate(); err != nil {
		return errors.WithStack(err)
	}

	if s.TaskRunner == nil {
		return errors.NewInternalError("Missing task runner")
	}

	startedAt := s.now()
	// Some file systems only keep modification times with second precision.
	cfg.Reports.ExecStart = startedAt.Truncate(time.Second)

	s.Log.Debugf("Executing %q %q", cfg.Command.Name, cfg.Command.Args)
	exitCode, err := exec.Run(ctx, s.TaskRunner, cfg.Command)
	if err != nil {
		return s.logError(errors.WithStack(err))
	}
	s.Log.Debugf("Test command exited with %d", exitCode)

	cfg.PriorExitCode = &exitCode

	if cfg.Reports.TestRunnerReport == nil {
		cfg.Reports.TestRunnerReport = commandRunnerReport(startedAt, s.now(), exitCode)
	}

	return s.Quarantine(ctx, cfg.QuarantineConfig)
}

// commandRunnerReport is the test runner report of a test command: it failed if it exited with a non-zero code.
func commandRunnerReport(startedAt, finishedAt time.Time, exitCode int) *fileset.TestRunnerReport {
	status := fileset.RunnerStatusPassed
	if exitCode != 0 {
		status = fileset.RunnerStatusFailed
	}

	return &fileset.TestRunnerReport{
		ResolvedStatus: status,
		StartTime:      startedAt,
		EndTime:        finishedAt,
	}
}
