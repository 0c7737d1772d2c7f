package git

import (
	"fmt"
	"strings"
)

// CommandError is returned when a git invocation exits unsuccessfully
type CommandError struct {
	Args   []string
	Err    error
	Output string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("git %s failed: %v, output: %s", strings.Join(e.Args, " "), e.Err, strings.TrimSpace(e.Output))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NotARepositoryError is returned when the configured path is not a git work tree
type NotARepositoryError struct {
	Path   string
	Reason string
}

func (e *NotARepositoryError) Error() string {
	return fmt.Sprintf("not a git repository: %s (%s)", e.Path, e.Reason)
}

// FetchError is returned when the remote could not be reached
type FetchError struct {
	Remote string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch from %s: %v", e.Remote, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MissingRemoteError is returned when the current branch has nothing to pull from
type MissingRemoteError struct {
	Branch string
}

func (e *MissingRemoteError) Error() string {
	return fmt.Sprintf("branch '%s' has no upstream and no matching remote branch", e.Branch)
}

// ApplyConflictError is returned when the upstream changes could not be rebased
// onto the local commits. The rebase has been aborted when this is returned.
type ApplyConflictError struct {
	Upstream string
	Output   string
}

func (e *ApplyConflictError) Error() string {
	return fmt.Sprintf("conflict while applying %s, rebase aborted: %s", e.Upstream, strings.TrimSpace(e.Output))
}

// ApplyError is returned when the pull failed for any other reason
type ApplyError struct {
	Upstream string
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply %s: %v", e.Upstream, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// StashError is returned when local changes could not be stashed
type StashError struct {
	Err error
}

func (e *StashError) Error() string {
	return fmt.Sprintf("failed to stash local changes: %v", e.Err)
}

func (e *StashError) Unwrap() error {
	return e.Err
}

// StashRestoreError is returned when the stash could not be popped after an update.
// The stash entry is still present in that case.
type StashRestoreError struct {
	Err error
}

func (e *StashRestoreError) Error() string {
	return fmt.Sprintf("update applied but local changes could not be restored (see 'git stash list'): %v", e.Err)
}

func (e *StashRestoreError) Unwrap() error {
	return e.Err
}
