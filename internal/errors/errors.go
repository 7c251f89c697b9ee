// Package errors is our internal errors package. It should be used in place of the standard "errors" package,
// "golang.org/x/xerrors", or "fmt.Errorf".
// This package ensures that all errors have a correct category & collect stack-traces.
package errors

import "golang.org/x/xerrors"

// category holds the fields shared by every error category. It is embedded so that each category stays a distinct
// type for `As`.
type category struct {
	E           error
	description string
	resolution  string
}

func (c category) Error() string {
	if c.E == nil {
		return ""
	}

	return c.E.Error()
}

func (c category) Unwrap() error {
	return c.E
}

// Description returns additional context about the error, used when decorating it for end-users.
func (c category) Description() string {
	return c.description
}

// Resolution returns a hint on how to fix the error, used when decorating it for end-users.
func (c category) Resolution() string {
	return c.resolution
}

// ConfigurationError represent a configuration error. When used, it should ideally also point towards the configuration
// value that caused this error to occur.
type ConfigurationError struct{ category }

// NewConfigurationError returns a new ConfigurationError
func NewConfigurationError(msg string, a ...any) ConfigurationError {
	return ConfigurationError{category{E: xerrors.Errorf(msg, a...)}}
}

// NewDetailedConfigurationError returns a ConfigurationError that renders with a description and resolution when
// passed through `WithDecoration`.
func NewDetailedConfigurationError(title, description, resolution string) ConfigurationError {
	return ConfigurationError{category{E: xerrors.New(title), description: description, resolution: resolution}}
}

// AsConfigurationError checks whether the error is a configuration error
func AsConfigurationError(err error) (ConfigurationError, bool) {
	var e ConfigurationError
	ok := As(err, &e)
	return e, ok
}

func (e ConfigurationError) Type() string {
	return "Configuration Error"
}

// ExecutionError is an error that was encountered during the execution of a different task. Specifically, this is being
// used with the `flakeguard test` command, which executes a test-suite as a sub-process.
// Execution errors carry the exit code the CLI should terminate with.
type ExecutionError struct {
	E    error
	Code int
}

// NewExecutionError returns a new ExecutionError
func NewExecutionError(code int, msg string, a ...any) ExecutionError {
	return ExecutionError{Code: code, E: xerrors.Errorf(msg, a...)}
}

// AsExecutionError checks whether the error is an execution error.
func AsExecutionError(err error) (ExecutionError, bool) {
	var e ExecutionError
	ok := As(err, &e)
	return e, ok
}

// Error returns the error message of this error
func (e ExecutionError) Error() string {
	return e.E.Error()
}

func (e ExecutionError) Unwrap() error {
	return e.E
}

// InputError is an error caused by user input
type InputError struct{ category }

// NewInputError returns a new InputError
func NewInputError(msg string, a ...any) InputError {
	return InputError{category{E: xerrors.Errorf(msg, a...)}}
}

// AsInputError checks whether the error is an input error
func AsInputError(err error) (InputError, bool) {
	var e InputError
	ok := As(err, &e)
	return e, ok
}

func (e InputError) Type() string {
	return "Input Error"
}

// InternalError is an internal error. This error type should only be used if an end-user cannot act upon it and would
// need to reach out to us for support.
type InternalError struct{ category }

// NewInternalError returns a new InternalError
func NewInternalError(msg string, a ...any) InternalError {
	return InternalError{category{E: xerrors.Errorf(msg, a...)}}
}

// AsInternalError checks whether the error is an internal error
func AsInternalError(err error) (InternalError, bool) {
	var e InternalError
	ok := As(err, &e)
	return e, ok
}

func (e InternalError) Type() string {
	return "Internal Error"
}

// SystemError is returned when the CLI encountered a system error. This is most likely either an error during file read
// or a network error.
type SystemError struct{ category }

// NewSystemError returns a new SystemError
func NewSystemError(msg string, a ...any) SystemError {
	return SystemError{category{E: xerrors.Errorf(msg, a...)}}
}

// AsSystemError checks whether the error is a system error
func AsSystemError(err error) (SystemError, bool) {
	var e SystemError
	ok := As(err, &e)
	return e, ok
}

func (e SystemError) Type() string {
	return "System Error"
}
