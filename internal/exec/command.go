package exec

import "context"

// Command is a command that is being executed. It mirrors the subset of `exec.Cmd` from `os/exec` that we need.
type Command interface {
	Start() error
	Wait() error
}

// Runner creates commands and interprets how they ended.
type Runner interface {
	NewCommand(ctx context.Context, cfg CommandConfig) (Command, error)
	GetExitStatusFromError(error) (int, error)
}
