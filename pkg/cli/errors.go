package cli

import (
	"errors"
	"fmt"
)

// ErrChecksFailed is returned by commands whose checks ran to completion but
// found invalid payloads or schema documents. The details are already printed.
var ErrChecksFailed = errors.New("checks failed")

// ConfigError reports configuration that prevents a command from starting.
type ConfigError struct {
	Field   string // dotted config path, e.g. "server.listen_address"
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration (%s): %s", e.Field, e.Message)
}

// CommandError wraps a failure of the named command.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewCommandError creates a CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// ExitCode maps a command error to a process exit status: 0 for nil, 1 when
// checks failed and 2 for anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrChecksFailed):
		return 1
	default:
		return 2
	}
}
