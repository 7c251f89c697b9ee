package exec

import (
	"io"
	"os"

	"github.com/mattn/go-shellwords"

	"github.com/rwx-research/flakeguard/internal/errors"
)

// CommandConfig configures a command for execution
type CommandConfig struct {
	Args   []string
	Env    []string
	Name   string
	Stdin  io.Reader
	Stderr io.Writer
	Stdout io.Writer
}

// CommandConfigFromArgs builds a CommandConfig from an argv. A single argument is treated as a shell-like command line
// and split into words, so both `flakeguard test -- go test ./...` and `flakeguard test -- "go test ./..."` work.
func CommandConfigFromArgs(args []string) (CommandConfig, error) {
	if len(args) == 1 {
		return CommandConfigFromLine(args[0])
	}

	if len(args) == 0 || args[0] == "" {
		return CommandConfig{}, errors.NewConfigurationError("No test command was specified")
	}

	return CommandConfig{
		Name:   args[0],
		Args:   args[1:],
		Stdin:  os.Stdin,
		Stderr: os.Stderr,
		Stdout: os.Stdout,
	}, nil
}

// CommandConfigFromLine splits a command line the way a shell would. Environment variables are expanded.
func CommandConfigFromLine(line string) (CommandConfig, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true

	words, err := parser.Parse(line)
	if err != nil {
		return CommandConfig{}, errors.NewConfigurationError("Unable to parse %q into a command: %s", line, err)
	}

	if len(words) == 0 {
		return CommandConfig{}, errors.NewConfigurationError("No test command was specified")
	}

	return CommandConfig{
		Name:   words[0],
		Args:   words[1:],
		Stdin:  os.Stdin,
		Stderr: os.Stderr,
		Stdout: os.Stdout,
	}, nil
}
