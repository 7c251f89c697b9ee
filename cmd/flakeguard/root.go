package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rwx-research/flakeguard/internal/backend"
	"github.com/rwx-research/flakeguard/internal/backend/local"
	"github.com/rwx-research/flakeguard/internal/backend/remote"
	"github.com/rwx-research/flakeguard/internal/cli"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/exec"
	"github.com/rwx-research/flakeguard/internal/fileset"
	"github.com/rwx-research/flakeguard/internal/fs"
	"github.com/rwx-research/flakeguard/internal/logging"
	"github.com/rwx-research/flakeguard/internal/providers"
	"github.com/rwx-research/flakeguard/internal/repo"
)

// CliArgs holds the values of all flags.
type CliArgs struct {
	configFilePath      string
	orgSlug             string
	repoRoot            string
	repoURL             string
	variant             string
	disableQuarantining bool
	debug               bool
	apiHost             string
	insecure            bool
	local               bool
	codeownersPath      string
	jsonOutput          string
	junitPaths          []string

	exitCode     int
	showWarnings bool
	output       string
	outputDir    string

	testRunnerStatus    string
	testRunnerStartTime string
	testRunnerEndTime   string
}

var (
	cliArgs    CliArgs
	flakeguard cli.Service

	rootCmd = &cobra.Command{
		Use:               "flakeguard",
		Short:             "flakeguard validates test reports and quarantines flaky test failures",
		Long:              descriptionFlakeguard,
		PersistentPreRunE: initCLIService,
		SilenceErrors:     true, // Errors are manually printed in 'main'
		SilenceUsage:      true, // Disables usage text on error
	}
)

// ConfigureRootCmd adds the global flags to the root command.
func ConfigureRootCmd(rootCmd *cobra.Command, cliArgs *CliArgs) error {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cliArgs.configFilePath, "config-file", "", "the config file for flakeguard")
	flags.StringVar(&cliArgs.orgSlug, "org-url-slug", "", "the organization the repository belongs to")
	flags.StringVar(&cliArgs.repoRoot, "repo-root", "", "the root of the repository (default: working directory)")
	flags.StringVar(&cliArgs.repoURL, "repo-url", "", "the repository URL (default: the 'origin' remote)")
	flags.StringVar(&cliArgs.variant, "variant", "", "distinguishes runs of the same tests in different environments")
	flags.BoolVar(
		&cliArgs.disableQuarantining,
		"disable-quarantining",
		false,
		"never change the exit code based on quarantined tests",
	)
	flags.BoolVar(&cliArgs.debug, "debug", false, "enable debug output")
	flags.StringVar(&cliArgs.apiHost, "api-host", "", "the host of the quarantine API")
	flags.BoolVar(&cliArgs.local, "local", false, "read quarantined tests from .flakeguard/quarantines.yaml")
	flags.StringVar(&cliArgs.codeownersPath, "codeowners-path", "", "the CODEOWNERS file to attribute owners from")
	flags.StringVar(&cliArgs.jsonOutput, "json-output", "", "write the quarantine decision as JSON to this path")
	flags.StringArrayVar(
		&cliArgs.junitPaths,
		"junit-paths",
		[]string{},
		"globs matching JUnit XML or run record files. Directories are searched recursively",
	)

	flags.BoolVar(&cliArgs.insecure, "insecure", false, "disable TLS for the API")
	if err := flags.MarkHidden("insecure"); err != nil {
		return errors.WithStack(err)
	}

	if err := viper.BindPFlag("insecure", flags.Lookup("insecure")); err != nil {
		return errors.WithStack(err)
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return nil
}

func initCLIService(cmd *cobra.Command, _ []string) error {
	cfg, err := InitConfig(cmd, &cliArgs)
	if err != nil {
		return errors.WithStack(err)
	}

	logger := logging.NewProductionLogger()
	if cfg.Output.Debug {
		logger = logging.NewDebugLogger()
	}

	flakeguard = cli.Service{
		Log:        logger,
		FileSystem: fs.Local{},
		TaskRunner: exec.Local{},
	}

	return nil
}

// reportsConfig is shared by every command that reads test reports.
func reportsConfig(cfg Config) (cli.ReportsConfig, error) {
	runnerReport, err := fileset.ParseTestRunnerReport(
		cliArgs.testRunnerStatus,
		cliArgs.testRunnerStartTime,
		cliArgs.testRunnerEndTime,
	)
	if err != nil {
		return cli.ReportsConfig{}, errors.NewConfigurationError("Invalid test runner report: %s", err)
	}

	return cli.ReportsConfig{
		Globs:            cfg.Reports.JUnitPaths,
		RepoRoot:         cfg.Repository.Root,
		CodeownersPath:   cfg.Reports.CodeownersPath,
		TestRunnerReport: runnerReport,
	}, nil
}

// addTestRunnerFlags lets callers describe the outcome their test runner reported for the reports.
func addTestRunnerFlags(cmd *cobra.Command, cliArgs *CliArgs) {
	flags := cmd.Flags()

	flags.StringVar(
		&cliArgs.testRunnerStatus,
		"test-runner-status",
		"",
		"the outcome the test runner reported: passed, failed or flaky",
	)
	flags.StringVar(&cliArgs.testRunnerStartTime, "test-runner-start-time", "", "when the test run started (RFC 3339)")
	flags.StringVar(&cliArgs.testRunnerEndTime, "test-runner-end-time", "", "when the test run ended (RFC 3339)")
}

// identityConfig resolves the repository the tests belong to. The CI provider's repository is used when the git
// repository does not have a remote.
func identityConfig(cfg Config, provider providers.Provider) (cli.IdentityConfig, []string, error) {
	overrides := repo.Overrides{
		URL:        cfg.Repository.URL,
		HeadSHA:    provider.CommitSha,
		HeadBranch: provider.BranchName,
	}

	bundle, err := repo.Open(cfg.Repository.Root, overrides)
	if _, ok := errors.AsConfigurationError(err); ok && provider.RepositoryURL != "" {
		overrides.URL = provider.RepositoryURL
		bundle, err = repo.Open(cfg.Repository.Root, overrides)
	}
	if err != nil {
		return cli.IdentityConfig{}, nil, errors.WithStack(err)
	}

	identity := cli.IdentityConfig{
		OrgSlug: cfg.Org,
		Repo:    bundle.Info,
		Variant: cfg.Quarantine.Variant,
	}

	return identity, []string{bundle.URL}, nil
}

// initBackend picks the source of the quarantine configuration.
func initBackend(cfg Config) (backend.Client, error) {
	if cfg.API.Local {
		root := cfg.Repository.Root
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, errors.NewSystemError("Unable to determine the current working directory: %s", err)
			}
			root = wd
		}

		client, err := local.NewClient(fs.Local{}, filepath.Join(root, flakeguardDirectory, quarantinesFileName))
		return client, errors.WithStack(err)
	}

	if cfg.Quarantine.Disabled && cfg.Secrets.Token == "" {
		return nil, nil
	}

	client, err := remote.NewClient(remote.ClientConfig{
		Debug:    cfg.Output.Debug,
		Host:     cfg.API.Host,
		Insecure: cfg.API.Insecure || viper.GetBool("insecure"),
		Log:      flakeguard.Log,
		Token:    cfg.Secrets.Token,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return client, nil
}
