package cli

import (
	"time"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/exec"
	"github.com/rwx-research/flakeguard/internal/fileset"
	"github.com/rwx-research/flakeguard/internal/providers"
	"github.com/rwx-research/flakeguard/internal/repo"
)

// ReportsConfig selects the report files a command works on.
type ReportsConfig struct {
	Globs          []string
	RepoRoot       string
	CodeownersPath string
	// TestRunnerReport applies to every file set. Optional.
	TestRunnerReport *fileset.TestRunnerReport
	// ExecStart excludes files that were not written after the test command started.
	ExecStart time.Time
}

func (c ReportsConfig) Validate() error {
	if len(c.Globs) == 0 {
		return errors.NewDetailedConfigurationError(
			"Missing test reports",
			"No paths to test reports were provided.",
			"Use '--junit-paths' to point flakeguard at your JUnit XML files, e.g. '--junit-paths \"reports/**/*.xml\"'.",
		)
	}

	return nil
}

func (c ReportsConfig) inputs() []fileset.Input {
	inputs := make([]fileset.Input, len(c.Globs))
	for i, glob := range c.Globs {
		inputs[i] = fileset.Input{Glob: glob, TestRunnerReport: c.TestRunnerReport}
	}

	return inputs
}

// IdentityConfig is the context test identities are derived in.
type IdentityConfig struct {
	OrgSlug string
	Repo    repo.Info
	Variant string
}

// QuarantineConfig is the configuration of `flakeguard quarantine`.
type QuarantineConfig struct {
	Reports  ReportsConfig
	Identity IdentityConfig

	RemoteURLs []string
	// PriorExitCode is the exit code of the test command, if there was one.
	PriorExitCode       *int
	DisableQuarantining bool
	// JSONOutput is where the decision is written to as JSON. Optional.
	JSONOutput string
	Provider   providers.Provider
}

func (c QuarantineConfig) Validate() error {
	if err := c.Reports.Validate(); err != nil {
		return err
	}

	if c.Identity.OrgSlug == "" && !c.DisableQuarantining {
		return errors.NewDetailedConfigurationError(
			"Missing organization",
			"Quarantining needs to know which organization the repository belongs to.",
			"Use '--org-url-slug' or set the FLAKEGUARD_ORG environment variable.",
		)
	}

	return nil
}

// TestConfig is the configuration of `flakeguard test`: run a command, then quarantine its failures.
type TestConfig struct {
	QuarantineConfig
	Command exec.CommandConfig
}

func (c TestConfig) Validate() error {
	if c.Command.Name == "" {
		return errors.NewConfigurationError("No test command was specified")
	}

	return c.QuarantineConfig.Validate()
}

// ExtractConfig is the configuration of `flakeguard extract`.
type ExtractConfig struct {
	Reports  ReportsConfig
	Identity IdentityConfig
	Output   string
}

func (c ExtractConfig) Validate() error {
	if err := c.Reports.Validate(); err != nil {
		return err
	}

	if c.Output == "" {
		return errors.NewConfigurationError("Missing output path, use '--output'")
	}

	return nil
}

// NormalizeConfig is the configuration of `flakeguard normalize`.
type NormalizeConfig struct {
	Reports   ReportsConfig
	OutputDir string
}

func (c NormalizeConfig) Validate() error {
	if err := c.Reports.Validate(); err != nil {
		return err
	}

	if c.OutputDir == "" {
		return errors.NewConfigurationError("Missing output directory, use '--output-dir'")
	}

	return nil
}

// ValidateConfig is the configuration of `flakeguard validate`.
type ValidateConfig struct {
	Reports ReportsConfig
	// ShowWarnings also logs the non-fatal issues found while parsing.
	ShowWarnings bool
}

func (c ValidateConfig) Validate() error {
	return c.Reports.Validate()
}
