package main

import (
	"github.com/spf13/cobra"

	"github.com/rwx-research/flakeguard/internal/cli"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/providers"
)

var (
	extractCmd = &cobra.Command{
		Use:   "extract",
		Short: "Write the test executions of test reports as run records",
		Long:  descriptionExtract,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return errors.WithStack(err)
			}

			// Without a repository the test IDs are still stable, just not namespaced by it.
			identity, _, err := identityConfig(cfg, providers.Detect(cfg.ProvidersEnv))
			if err != nil {
				flakeguard.Log.Warnf("Unable to determine the repository, test IDs will not include it: %s", err)
				identity = cli.IdentityConfig{OrgSlug: cfg.Org, Variant: cfg.Quarantine.Variant}
			}

			reports, err := reportsConfig(cfg)
			if err != nil {
				return err
			}

			return errors.WithStack(flakeguard.Extract(cmd.Context(), cli.ExtractConfig{
				Reports:  reports,
				Identity: identity,
				Output:   cliArgs.output,
			}))
		},
	}

	normalizeCmd = &cobra.Command{
		Use:   "normalize",
		Short: "Write test reports back out as normalized JUnit XML",
		Long:  descriptionNormalize,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return errors.WithStack(err)
			}

			reports, err := reportsConfig(cfg)
			if err != nil {
				return err
			}

			return errors.WithStack(flakeguard.Normalize(cmd.Context(), cli.NormalizeConfig{
				Reports:   reports,
				OutputDir: cliArgs.outputDir,
			}))
		},
	}
)

func configureExtractCmd(cliArgs *CliArgs) {
	extractCmd.Flags().StringVar(&cliArgs.output, "output", "", "the run record file to write to")
	rootCmd.AddCommand(extractCmd)
}

func configureNormalizeCmd(cliArgs *CliArgs) {
	normalizeCmd.Flags().StringVar(&cliArgs.outputDir, "output-dir", "", "the directory to write normalized reports to")
	rootCmd.AddCommand(normalizeCmd)
}
