package main

import (
	"github.com/spf13/cobra"

	"github.com/rwx-research/flakeguard/internal/cli"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/exec"
	"github.com/rwx-research/flakeguard/internal/providers"
)

var (
	quarantineCmd = &cobra.Command{
		Use:   "quarantine",
		Short: "Decide on the exit code of a test run based on quarantined tests",
		Long:  descriptionQuarantine,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := initQuarantine(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("exit-code") {
				exitCode := cliArgs.exitCode
				cfg.PriorExitCode = &exitCode
			}

			return errors.WithStack(flakeguard.Quarantine(cmd.Context(), cfg))
		},
	}

	testCmd = &cobra.Command{
		Use:   "test [flags] -- <command>",
		Short: "Execute a test command and quarantine its failures",
		Long:  descriptionTest,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initQuarantine(cmd)
			if err != nil {
				return err
			}

			command, err := testCommand(cmd, args)
			if err != nil {
				return err
			}

			return errors.WithStack(flakeguard.Test(cmd.Context(), cli.TestConfig{
				QuarantineConfig: cfg,
				Command:          command,
			}))
		},
	}
)

// initQuarantine resolves everything quarantining needs: the repository, the CI provider and the backend.
func initQuarantine(cmd *cobra.Command) (cli.QuarantineConfig, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return cli.QuarantineConfig{}, errors.WithStack(err)
	}

	provider := providers.Detect(cfg.ProvidersEnv)
	if provider.Detected() {
		flakeguard.Log.Debugf("Detected CI provider %q", provider.Name)
	}

	identity, remoteURLs, err := identityConfig(cfg, provider)
	if err != nil {
		return cli.QuarantineConfig{}, err
	}

	reports, err := reportsConfig(cfg)
	if err != nil {
		return cli.QuarantineConfig{}, err
	}

	client, err := initBackend(cfg)
	if err != nil {
		return cli.QuarantineConfig{}, err
	}
	flakeguard.Backend = client

	return cli.QuarantineConfig{
		Reports:             reports,
		Identity:            identity,
		RemoteURLs:          remoteURLs,
		DisableQuarantining: cfg.Quarantine.Disabled,
		JSONOutput:          cfg.Quarantine.JSONOutput,
		Provider:            provider,
	}, nil
}

// testCommand is the command after `--`, or the one from the config file.
func testCommand(cmd *cobra.Command, args []string) (exec.CommandConfig, error) {
	if len(args) > 0 {
		command, err := exec.CommandConfigFromArgs(args)
		return command, errors.WithStack(err)
	}

	cfg, err := getConfig(cmd)
	if err != nil {
		return exec.CommandConfig{}, errors.WithStack(err)
	}

	if cfg.Test.Command == "" {
		return exec.CommandConfig{}, errors.NewDetailedConfigurationError(
			"Missing test command",
			"flakeguard needs to know which command runs your tests.",
			"Pass the command after '--', e.g. 'flakeguard test -- bundle exec rspec', or set 'test.command' in "+
				"the config file.",
		)
	}

	command, err := exec.CommandConfigFromLine(cfg.Test.Command)
	return command, errors.WithStack(err)
}

func configureQuarantineCmd(cliArgs *CliArgs) {
	quarantineCmd.Flags().IntVar(
		&cliArgs.exitCode,
		"exit-code",
		0,
		"the exit code of the test run. Defaults to 1 if any test failed",
	)

	addTestRunnerFlags(quarantineCmd, cliArgs)

	rootCmd.AddCommand(quarantineCmd)
}

func configureTestCmd() {
	rootCmd.AddCommand(testCmd)
}
