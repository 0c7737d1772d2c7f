package actions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mxcd/updatify/internal/configuration"
)

// ErrUpdateInProgress is returned when Apply is called while another apply is running
var ErrUpdateInProgress = errors.New("an update is already in progress")

// ErrUpdateCancelled is returned when the user declined the update plan
var ErrUpdateCancelled = errors.New("update cancelled")

// ConfigError is returned when the configuration could not be loaded or is invalid
type ConfigError struct {
	Path   string
	Err    error
	Errors []*configuration.ValidationError
}

func (e *ConfigError) Error() string {
	if len(e.Errors) > 0 {
		messages := make([]string, 0, len(e.Errors))
		for _, validationErr := range e.Errors {
			messages = append(messages, validationErr.Error())
		}
		return fmt.Sprintf("invalid configuration %s: %s", e.Path, strings.Join(messages, "; "))
	}
	return fmt.Sprintf("failed to load configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// InstallerError is returned when the checkout's setup script failed after an applied update
type InstallerError struct {
	Script   string // relative to the checkout
	Args     []string
	ExitCode int
	Err      error
}

func (e *InstallerError) Error() string {
	return fmt.Sprintf("installer './%s %s' failed (exit %d): %v", e.Script, strings.Join(e.Args, " "), e.ExitCode, e.Err)
}

func (e *InstallerError) Unwrap() error {
	return e.Err
}

// PostInstallError is returned when the post-install script exited unsuccessfully.
// The update itself stays applied.
type PostInstallError struct {
	Script   string
	ExitCode int
	Err      error
}

func (e *PostInstallError) Error() string {
	return fmt.Sprintf("post-install script %s failed (exit %d): %v", e.Script, e.ExitCode, e.Err)
}

func (e *PostInstallError) Unwrap() error {
	return e.Err
}
