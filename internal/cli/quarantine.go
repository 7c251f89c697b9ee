package cli

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/quarantine"
	"github.com/rwx-research/flakeguard/internal/reconcile"
	"github.com/rwx-research/flakeguard/internal/reporting"
	"github.com/rwx-research/flakeguard/internal/validation"
)

// Quarantine reconciles the failures in all reports and decides whether they are quarantined. A non-zero exit code
// is returned as an ExecutionError.
func (s Service) Quarantine(ctx context.Context, cfg QuarantineConfig) error {
	if err := cfg.Validate(); err != nil {
		return errors.WithStack(err)
	}

	result, err := s.process(ctx, cfg.Reports, cfg.Identity)
	if err != nil {
		return s.logError(errors.WithStack(err))
	}

	failures := reconcile.Reconcile(result.ReconcileInputs())
	s.Log.Debugf("%d tests are still failing after reconciliation", len(failures))

	var decision quarantine.Decision

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		decision = quarantine.Gather(egCtx, quarantine.Request{
			Fetcher:             s.Backend,
			Log:                 s.Log,
			Failures:            failures,
			PriorExitCode:       cfg.PriorExitCode,
			NoFilesFound:        result.NoFilesFound(),
			DisableQuarantining: cfg.DisableQuarantining,
			OrgSlug:             cfg.Identity.OrgSlug,
			Repo:                cfg.Identity.Repo,
			RemoteURLs:          cfg.RemoteURLs,
		})
		return nil
	})

	s.logValidationSummary(result)

	if err := eg.Wait(); err != nil {
		return s.logError(errors.WithStack(err))
	}

	if cfg.JSONOutput != "" {
		if err := s.writeJSONSummary(cfg, decision); err != nil {
			return s.logError(err)
		}
	}

	if decision.ExitCode != quarantine.ExitSuccess {
		return errors.NewExecutionError(
			decision.ExitCode,
			"%d of %d failing tests are not quarantined",
			len(decision.NotQuarantined),
			len(failures),
		)
	}

	return nil
}

// logValidationSummary points out reports that may lead to wrong quarantine decisions.
func (s Service) logValidationSummary(result pipelineResult) {
	for _, file := range result.Files {
		if issues := fileLevelIssues(file); len(issues) > 0 && !file.Failed {
			s.Log.Warnf("%s is not a valid test report (%s)", file.File.DisplayPath(), strings.Join(issues, ", "))
		}

		for _, v := range file.Validations {
			switch v.MaxLevel() {
			case validation.LevelInvalid:
				s.Log.Warnf(
					"%s is not a valid test report (%d validation errors), run `flakeguard validate` for details",
					file.File.DisplayPath(),
					v.NumInvalidIssues(),
				)
			case validation.LevelSubOptimal:
				s.Log.Debugf("%s has %d validation warnings", file.File.DisplayPath(), v.NumSubOptimalIssues())
			case validation.LevelValid:
			}
		}
	}
}

func (s Service) writeJSONSummary(cfg QuarantineConfig, decision quarantine.Decision) error {
	file, err := s.FileSystem.Create(cfg.JSONOutput)
	if err != nil {
		return errors.NewSystemError("unable to create %q: %s", cfg.JSONOutput, err)
	}
	defer file.Close()

	return errors.WithStack(reporting.WriteJSONSummary(file, decision, reporting.Configuration{
		OrgSlug:  cfg.Identity.OrgSlug,
		Repo:     cfg.Identity.Repo,
		Provider: cfg.Provider,
	}))
}

