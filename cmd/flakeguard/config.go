package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v7"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rwx-research/flakeguard/internal/cli"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/providers"
)

// Config is the internal representation of the configuration.
type Config struct {
	cli.ConfigFile

	ProvidersEnv providers.Env

	Env struct {
		APIHost             string `env:"FLAKEGUARD_API_HOST"`
		Org                 string `env:"FLAKEGUARD_ORG"`
		Variant             string `env:"FLAKEGUARD_VARIANT"`
		DisableQuarantining bool   `env:"FLAKEGUARD_DISABLE_QUARANTINING"`
	}

	Secrets struct {
		Token string `env:"FLAKEGUARD_TOKEN"`
	}
}

type contextKey string

var configKey = contextKey("flakeguardConfig")

func getConfig(cmd *cobra.Command) (Config, error) {
	val := cmd.Context().Value(configKey)
	if val == nil {
		return Config{}, errors.NewInternalError(
			"Tried to fetch config from the command but it wasn't set. This should never happen!")
	}

	cfg, ok := val.(Config)
	if !ok {
		return Config{}, errors.NewInternalError(
			"Tried to fetch config from the command but it was of the wrong type. This should never happen!")
	}

	return cfg, nil
}

// adds config to cmd's context
func setConfigContext(cmd *cobra.Command, cfg Config) error {
	if _, err := getConfig(cmd); err == nil {
		return errors.NewInternalError("Tried to set config on the command but it was already set. This should never happen!")
	}

	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	cmd.SetContext(ctx)
	return nil
}

const (
	flakeguardDirectory = ".flakeguard"
	configFileName      = "config"
	quarantinesFileName = "quarantines.yaml"
)

var configFileExtensions = []string{"yaml", "yml"}

// findInParentDir starts at the current working directory and walks up to the root, trying to find fileName.
func findInParentDir(fileName string) (string, error) {
	var match string
	var walk func(string, string) error

	walk = func(base, root string) error {
		match = path.Join(base, fileName)

		info, err := os.Stat(match)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.WithStack(err)
		}

		if info != nil {
			return nil
		}

		if base == root {
			return errors.WithStack(os.ErrNotExist)
		}

		return walk(filepath.Dir(base), root)
	}

	pwd, err := os.Getwd()
	if err != nil {
		return "", errors.WithStack(err)
	}

	volumeName := filepath.VolumeName(pwd)
	if volumeName == "" {
		volumeName = string(os.PathSeparator)
	}

	if err := walk(pwd, volumeName); err != nil {
		return "", errors.WithStack(err)
	}

	return match, nil
}

func findConfigFile() (string, error) {
	possibleConfigFilePaths := make([]string, 0, len(configFileExtensions))

	for _, extension := range configFileExtensions {
		configFilePath, err := findInParentDir(
			filepath.Join(flakeguardDirectory, fmt.Sprintf("%s.%s", configFileName, extension)),
		)

		switch {
		case err == nil:
			possibleConfigFilePaths = append(possibleConfigFilePaths, configFilePath)
		case !errors.Is(err, os.ErrNotExist):
			return "", errors.NewDetailedConfigurationError(
				"Unable to read configuration file",
				fmt.Sprintf("The following system error occurred while looking for a config file: %s", err.Error()),
				"Please make sure that flakeguard has the correct permissions to access the config file.",
			)
		}
	}

	if len(possibleConfigFilePaths) > 1 {
		return "", errors.NewDetailedConfigurationError(
			"Unable to identify configuration file",
			fmt.Sprintf(
				"flakeguard found multiple configuration files in your environment: %s\n",
				strings.Join(possibleConfigFilePaths, ", "),
			),
			"Please make sure only one config file is present in your environment or explicitly specify "+
				"one using the '--config-file' flag.",
		)
	}

	if len(possibleConfigFilePaths) == 0 {
		return "", nil
	}

	return possibleConfigFilePaths[0], nil
}

func readConfigFile(configFilePath string, configFile *cli.ConfigFile) error {
	fd, err := os.Open(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.NewConfigurationError("Config file %q does not exist", configFilePath)
		}

		return errors.NewSystemError("unable to open config file %q: %s", configFilePath, err)
	}
	defer fd.Close()

	decoder := yaml.NewDecoder(fd)
	decoder.KnownFields(true)
	if err = decoder.Decode(configFile); err != nil && !errors.Is(err, io.EOF) {
		typeError := new(yaml.TypeError)
		if errors.As(err, &typeError) {
			return errors.NewDetailedConfigurationError(
				"Parsing Error",
				strings.Join(typeError.Errors, "\n"),
				"Please check the keys and values of your config file at "+configFilePath+".",
			)
		}

		return errors.NewConfigurationError("unable to parse config file %q: %s", configFilePath, err)
	}

	return nil
}

// InitConfig reads our configuration from the system.
// Environment variables take precedence over a config file.
// Flags take precedence over all other options.
func InitConfig(cmd *cobra.Command, cliArgs *CliArgs) (cfg Config, err error) {
	configFilePath := cliArgs.configFilePath
	if configFilePath == "" {
		if configFilePath, err = findConfigFile(); err != nil {
			return cfg, err
		}
	}

	if configFilePath != "" {
		if err = readConfigFile(configFilePath, &cfg.ConfigFile); err != nil {
			return cfg, err
		}
	}

	for name, value := range cfg.Flags {
		if err := cmd.Flags().Set(name, fmt.Sprintf("%v", value)); err != nil {
			return cfg, errors.NewConfigurationError("unable to set flag %q from the config file: %s", name, err)
		}
	}

	if err = env.Parse(&cfg); err != nil {
		return cfg, errors.NewConfigurationError("unable to parse environment variables: %s", err)
	}

	cfg = bindEnv(cfg)
	cfg = bindRootCmdFlags(cfg, cliArgs, cmd)

	if err = setConfigContext(cmd, cfg); err != nil {
		return cfg, errors.WithStack(err)
	}

	return cfg, nil
}

func bindEnv(cfg Config) Config {
	if cfg.Env.APIHost != "" {
		cfg.API.Host = cfg.Env.APIHost
	}

	if cfg.Env.Org != "" {
		cfg.Org = cfg.Env.Org
	}

	if cfg.Env.Variant != "" {
		cfg.Quarantine.Variant = cfg.Env.Variant
	}

	if cfg.Env.DisableQuarantining {
		cfg.Quarantine.Disabled = true
	}

	return cfg
}

// bindRootCmdFlags only applies flags that were set, either on the command line or through `flags` in the config
// file.
func bindRootCmdFlags(cfg Config, cliArgs *CliArgs, cmd *cobra.Command) Config {
	changed := cmd.Flags().Changed

	if changed("org-url-slug") {
		cfg.Org = cliArgs.orgSlug
	}

	if changed("repo-root") {
		cfg.Repository.Root = cliArgs.repoRoot
	}

	if changed("repo-url") {
		cfg.Repository.URL = cliArgs.repoURL
	}

	if changed("variant") {
		cfg.Quarantine.Variant = cliArgs.variant
	}

	if changed("disable-quarantining") {
		cfg.Quarantine.Disabled = cliArgs.disableQuarantining
	}

	if changed("debug") {
		cfg.Output.Debug = cliArgs.debug
	}

	if changed("api-host") {
		cfg.API.Host = cliArgs.apiHost
	}

	if changed("insecure") {
		cfg.API.Insecure = cliArgs.insecure
	}

	if changed("local") {
		cfg.API.Local = cliArgs.local
	}

	if changed("codeowners-path") {
		cfg.Reports.CodeownersPath = cliArgs.codeownersPath
	}

	if changed("json-output") {
		cfg.Quarantine.JSONOutput = cliArgs.jsonOutput
	}

	if changed("junit-paths") {
		cfg.Reports.JUnitPaths = cliArgs.junitPaths
	}

	return cfg
}
