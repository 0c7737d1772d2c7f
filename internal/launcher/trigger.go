package launcher

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LaunchFunc runs one command to completion
type LaunchFunc func(ctx context.Context, command string) (ExitStatus, error)

// Trigger is the handler behind the launch button. It never runs two
// launches at once: Fire returns ErrBusy while a launch is in flight.
type Trigger struct {
	command string
	timeout time.Duration
	launch  LaunchFunc

	mu sync.Mutex
}

// NewTrigger creates a trigger for command. A zero timeout waits indefinitely.
func NewTrigger(command string, timeout time.Duration) *Trigger {
	return &Trigger{
		command: command,
		timeout: timeout,
		launch:  Launch,
	}
}

// WithLaunchFunc replaces the function used to run the command
func (t *Trigger) WithLaunchFunc(launch LaunchFunc) *Trigger {
	t.launch = launch
	return t
}

// Command returns the command the trigger runs
func (t *Trigger) Command() string {
	return t.command
}

// Fire runs the command once and blocks until it finished
func (t *Trigger) Fire(ctx context.Context) (ExitStatus, error) {
	if !t.mu.TryLock() {
		log.Debug().Str("command", t.command).Msg("Launch ignored, previous launch still running")
		return ExitStatus{}, ErrBusy
	}
	defer t.mu.Unlock()

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	status, err := t.launch(ctx, t.command)
	if err != nil {
		log.Debug().Err(err).Str("command", t.command).Msg("Launch failed")
	}

	return status, err
}
