package launcher

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBusy is returned by Trigger.Fire while a previous launch is still running
var ErrBusy = errors.New("a launch is already in progress")

// MissingBinaryError is returned when the command's program cannot be found
type MissingBinaryError struct {
	Program string
	Err     error
}

func (e *MissingBinaryError) Error() string {
	return fmt.Sprintf("command not found: %s", e.Program)
}

func (e *MissingBinaryError) Unwrap() error {
	return e.Err
}

// SubprocessFailure is returned when the command exits with a nonzero status
type SubprocessFailure struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *SubprocessFailure) Error() string {
	message := fmt.Sprintf("'%s' exited with status %d", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		message += ": " + stderr
	}
	return message
}

// TimeoutError is returned when the command outlived its deadline and was killed
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("'%s' did not finish within %s", e.Command, e.Timeout)
}

// InvalidCommandError is returned when the command string cannot be split into a program and arguments
type InvalidCommandError struct {
	Command string
	Reason  string
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid launch command '%s': %s", e.Command, e.Reason)
}
