// Package parsing reads test report documents into the canonical model of `internal/report`.
// Structural anomalies are returned as ParseIssues next to the reports; only I/O failures are errors.
package parsing

import (
	"io"

	"go.uber.org/zap"

	"github.com/rwx-research/flakeguard/internal/errors"
)

type Config struct {
	Logger  *zap.SugaredLogger
	Parsers []Parser
}

func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.NewInternalError("No logger was provided")
	}

	return nil
}

// WithDefaults falls back to the JUnit parser when no parsers are configured.
func (c Config) WithDefaults() Config {
	if len(c.Parsers) == 0 {
		c.Parsers = []Parser{NewJUnitParser()}
	}

	return c
}

// Parse tries each configured parser in turn and returns the first result that carries at least one report.
// If no parser finds a report, the result of the first parser is returned so its issues are not lost.
// Trying more than one parser requires `r` to be an io.Seeker.
func Parse(cfg Config, r io.Reader) (*ParseResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	cfg = cfg.WithDefaults()

	seeker, canRewind := r.(io.Seeker)

	var first *ParseResult
	for i, parser := range cfg.Parsers {
		if i > 0 {
			if !canRewind {
				cfg.Logger.Debugf("Unable to rewind input, skipping remaining %d parsers", len(cfg.Parsers)-i)
				break
			}

			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return nil, errors.NewSystemError("Unable to rewind file: %s", err)
			}
		}

		result, err := parser.Parse(r)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if result == nil {
			return nil, errors.NewInternalError("%T did not error and did not return a parse result", parser)
		}

		cfg.Logger.Debugf("%T found %d reports and %d issues", parser, len(result.Reports), len(result.Issues))

		if len(result.Reports) > 0 {
			return result, nil
		}

		if first == nil {
			first = result
		}
	}

	return first, nil
}
