// Package main holds the command line interface of flakeguard. The package itself is mainly concerned with
// configuring the necessary options before passing control to `internal/cli`, which holds the business logic itself.
package main

import (
	"fmt"
	"os"

	"github.com/rwx-research/flakeguard/internal/errors"
)

func main() {
	if err := ConfigureRootCmd(rootCmd, &cliArgs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	configureValidateCmd(&cliArgs)
	configureQuarantineCmd(&cliArgs)
	configureTestCmd()
	configureExtractCmd(&cliArgs)
	configureNormalizeCmd(&cliArgs)

	// Logging happens in `internal/cli`. The error here is only used to communicate the exit code.
	if err := rootCmd.Execute(); err != nil {
		if e, ok := errors.AsExecutionError(err); ok {
			os.Exit(e.Code)
		}

		if _, ok := errors.AsConfigurationError(err); ok {
			fmt.Fprintln(os.Stderr, errors.WithDecoration(err))
		}

		os.Exit(1)
	}
}
