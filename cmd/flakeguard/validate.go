package main

import (
	"github.com/spf13/cobra"

	"github.com/rwx-research/flakeguard/internal/cli"
	"github.com/rwx-research/flakeguard/internal/errors"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate test reports",
	Long:  descriptionValidate,
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

		return errors.WithStack(flakeguard.ValidateReports(cmd.Context(), cli.ValidateConfig{
			Reports:      reports,
			ShowWarnings: cliArgs.showWarnings,
		}))
	},
}

func configureValidateCmd(cliArgs *CliArgs) {
	validateCmd.Flags().BoolVar(
		&cliArgs.showWarnings,
		"show-warnings",
		false,
		"also list the non-fatal issues found while parsing",
	)

	addTestRunnerFlags(validateCmd, cliArgs)

	rootCmd.AddCommand(validateCmd)
}
