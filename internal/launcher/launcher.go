package launcher

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/mxcd/updatify/internal/configuration"
	"github.com/rs/zerolog/log"
)

// waitDelay bounds how long Launch waits for output pipes after the process was killed
const waitDelay = 2 * time.Second

// ExitStatus is the outcome of a finished launch
type ExitStatus struct {
	Code     int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the process exited with status 0
func (s ExitStatus) Success() bool {
	return s.Code == 0
}

// ResolveCommand returns ZEN_CMD when it is set and non-empty, else the default dialog command
func ResolveCommand(lookup func(string) (string, bool)) string {
	return configuration.ResolveLaunchCommand("", lookup)
}

// Split breaks a command line into program and arguments using shell quoting rules.
// Variables and backticks are not expanded.
func Split(command string) ([]string, error) {
	if strings.TrimSpace(command) == "" {
		return nil, &InvalidCommandError{Command: command, Reason: "command is empty"}
	}

	words, err := shellwords.Parse(command)
	if err != nil {
		return nil, &InvalidCommandError{Command: command, Reason: err.Error()}
	}
	if len(words) == 0 {
		return nil, &InvalidCommandError{Command: command, Reason: "command has no program"}
	}

	return words, nil
}

// Launch runs command, waits for it and returns its exit status. A nonzero
// exit is returned as *SubprocessFailure together with the status. The
// process is killed if ctx ends first; it is never left running on return.
func Launch(ctx context.Context, command string) (ExitStatus, error) {
	words, err := Split(command)
	if err != nil {
		return ExitStatus{}, err
	}

	log.Debug().Str("command", command).Strs("argv", words).Msg("Launching command")

	cmd := exec.CommandContext(ctx, words[0], words[1:]...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	status := ExitStatus{
		Code:     -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		status.Code = cmd.ProcessState.ExitCode()
	}

	if runErr == nil {
		log.Debug().Str("command", command).Dur("duration", status.Duration).Msg("Command finished")
		return status, nil
	}

	if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, fs.ErrNotExist) {
		return status, &MissingBinaryError{Program: words[0], Err: runErr}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return status, &TimeoutError{Command: command, Timeout: timeoutOf(ctx, start)}
		}
		return status, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return status, &SubprocessFailure{Command: command, ExitCode: status.Code, Stderr: status.Stderr}
	}

	return status, runErr
}

func timeoutOf(ctx context.Context, start time.Time) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline.Sub(start).Round(time.Millisecond)
	}
	return time.Since(start).Round(time.Millisecond)
}
