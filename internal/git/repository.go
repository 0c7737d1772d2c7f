package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// NewRepository creates a new repository instance
func NewRepository(workingDirectory string) *Repository {
	return &Repository{
		WorkingDirectory: workingDirectory,
		Remote:           DefaultRemote,
	}
}

// run executes git in the working directory and returns its stdout.
// On failure the returned *CommandError carries stderr and stdout.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	log.Trace().Str("dir", r.WorkingDirectory).Strs("args", args).Msg("Running git")

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.WorkingDirectory
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), &CommandError{
			Args:   args,
			Err:    err,
			Output: stderr.String() + stdout.String(),
		}
	}

	return stdout.String(), nil
}

// IsRepository checks that the working directory exists and is inside a git work tree
func (r *Repository) IsRepository(ctx context.Context) error {
	info, err := os.Stat(r.WorkingDirectory)
	if err != nil {
		return &NotARepositoryError{Path: r.WorkingDirectory, Reason: "path does not exist"}
	}
	if !info.IsDir() {
		return &NotARepositoryError{Path: r.WorkingDirectory, Reason: "path is not a directory"}
	}

	output, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(output) != "true" {
		return &NotARepositoryError{Path: r.WorkingDirectory, Reason: "no git work tree"}
	}

	return nil
}

// Fetch updates all remote-tracking refs
func (r *Repository) Fetch(ctx context.Context) error {
	log.Debug().Str("dir", r.WorkingDirectory).Msg("Fetching remote changes")

	if _, err := r.run(ctx, "fetch", "--all", "--prune"); err != nil {
		return &FetchError{Remote: r.Remote, Err: err}
	}

	return nil
}

// CurrentBranch gets the current branch name
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}

	return strings.TrimSpace(output), nil
}

// Head returns the full hash of HEAD
func (r *Repository) Head(ctx context.Context) (string, error) {
	output, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	return strings.TrimSpace(output), nil
}

// Upstream resolves the ref the current branch pulls from. The configured
// upstream wins; otherwise <remote>/<branch> is used when that ref exists.
func (r *Repository) Upstream(ctx context.Context, branch string) (string, error) {
	if output, err := r.run(ctx, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}"); err == nil {
		if upstream := strings.TrimSpace(output); upstream != "" {
			return upstream, nil
		}
	}

	if branch == "" || branch == "HEAD" {
		return "", &MissingRemoteError{Branch: branch}
	}

	fallback := fmt.Sprintf("%s/%s", r.remote(), branch)
	if _, err := r.run(ctx, "rev-parse", "--verify", "--quiet", "refs/remotes/"+fallback); err != nil {
		return "", &MissingRemoteError{Branch: branch}
	}

	log.Debug().Str("branch", branch).Str("upstream", fallback).Msg("No upstream configured, using remote branch")

	return fallback, nil
}

// AheadBehind counts commits only in HEAD (ahead) and only in upstream (behind)
func (r *Repository) AheadBehind(ctx context.Context, upstream string) (int, int, error) {
	output, err := r.run(ctx, "rev-list", "--left-right", "--count", fmt.Sprintf("%s...HEAD", upstream))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count commits against %s: %w", upstream, err)
	}

	fields := strings.Fields(output)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output: %q", output)
	}

	behind, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid behind count: %w", err)
	}
	ahead, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid ahead count: %w", err)
	}

	return ahead, behind, nil
}

// DirtyCount returns the number of modified, staged or untracked paths
func (r *Repository) DirtyCount(ctx context.Context) (int, error) {
	output, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return 0, fmt.Errorf("failed to check git status: %w", err)
	}

	count := 0
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}

	return count, nil
}

// Status reads the checkout state. A failed fetch is recorded on the status
// instead of being returned, so the last known remote state is still shown.
func (r *Repository) Status(ctx context.Context) (*RepositoryStatus, error) {
	if err := r.IsRepository(ctx); err != nil {
		return nil, err
	}

	status := &RepositoryStatus{
		Path:      r.WorkingDirectory,
		CheckedAt: time.Now(),
	}

	if err := r.Fetch(ctx); err != nil {
		log.Warn().Err(err).Msg("Fetch failed, using last known remote state")
		status.FetchError = err
	}

	if err := r.fillStatus(ctx, status); err != nil {
		return nil, err
	}

	return status, nil
}

// CheckForUpdates fetches and returns the checkout state together with the
// pending upstream commits. Unlike Status, a failed fetch is an error.
func (r *Repository) CheckForUpdates(ctx context.Context) (*RepositoryStatus, *PendingCommits, error) {
	if err := r.IsRepository(ctx); err != nil {
		return nil, nil, err
	}

	if err := r.Fetch(ctx); err != nil {
		return nil, nil, err
	}

	status := &RepositoryStatus{
		Path:      r.WorkingDirectory,
		CheckedAt: time.Now(),
	}
	if err := r.fillStatus(ctx, status); err != nil {
		return nil, nil, err
	}

	pending, err := r.PendingCommits(ctx, status.Upstream)
	if err != nil {
		return nil, nil, err
	}

	return status, pending, nil
}

func (r *Repository) fillStatus(ctx context.Context, status *RepositoryStatus) error {
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	status.Branch = branch

	upstream, err := r.Upstream(ctx, branch)
	if err != nil {
		return err
	}
	status.Upstream = upstream

	if status.Head, err = r.Head(ctx); err != nil {
		return err
	}

	if status.Ahead, status.Behind, err = r.AheadBehind(ctx, upstream); err != nil {
		return err
	}

	if status.Dirty, err = r.DirtyCount(ctx); err != nil {
		return err
	}

	log.Debug().
		Str("branch", status.Branch).
		Str("upstream", status.Upstream).
		Int("ahead", status.Ahead).
		Int("behind", status.Behind).
		Int("dirty", status.Dirty).
		Msg("Read repository status")

	return nil
}

// Stash shelves tracked and untracked local changes. It reports whether a
// stash entry was created.
func (r *Repository) Stash(ctx context.Context) (bool, error) {
	log.Debug().Str("dir", r.WorkingDirectory).Msg("Stashing local changes")

	output, err := r.run(ctx, "stash", "push", "--include-untracked", "-m", StashMessage)
	if err != nil {
		return false, &StashError{Err: err}
	}

	if strings.Contains(output, "No local changes to save") {
		return false, nil
	}

	return true, nil
}

// StashPop restores the most recent stash entry
func (r *Repository) StashPop(ctx context.Context) error {
	log.Debug().Str("dir", r.WorkingDirectory).Msg("Restoring stashed changes")

	if _, err := r.run(ctx, "stash", "pop"); err != nil {
		return &StashRestoreError{Err: err}
	}

	return nil
}

// Pull rebases the current branch onto upstream and returns git's diffstat.
// A conflicting rebase is aborted before ApplyConflictError is returned.
func (r *Repository) Pull(ctx context.Context, upstream string) (string, error) {
	remote, branch, err := r.splitUpstream(ctx, upstream)
	if err != nil {
		return "", err
	}

	log.Debug().Str("remote", remote).Str("branch", branch).Msg("Pulling with rebase")

	output, err := r.run(ctx, "pull", "--rebase", "--stat", remote, branch)
	if err == nil {
		return output, nil
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return "", &ApplyError{Upstream: upstream, Err: err}
	}

	if r.rebaseInProgress(ctx) || isConflictOutput(cmdErr.Output) {
		if _, abortErr := r.run(context.WithoutCancel(ctx), "rebase", "--abort"); abortErr != nil {
			log.Warn().Err(abortErr).Msg("Failed to abort rebase")
		}
		return "", &ApplyConflictError{Upstream: upstream, Output: cmdErr.Output}
	}

	if isTransportOutput(cmdErr.Output) {
		return "", &FetchError{Remote: remote, Err: err}
	}

	return "", &ApplyError{Upstream: upstream, Err: err}
}

// splitUpstream returns the remote and branch to pull upstream from. A local
// branch upstream uses the remote ".".
func (r *Repository) splitUpstream(ctx context.Context, upstream string) (string, string, error) {
	output, err := r.run(ctx, "rev-parse", "--symbolic-full-name", upstream)
	ref := strings.TrimSpace(output)
	if err != nil || ref == "" {
		return "", "", &MissingRemoteError{Branch: upstream}
	}

	if branch, ok := strings.CutPrefix(ref, "refs/heads/"); ok {
		return ".", branch, nil
	}

	remoteRef, ok := strings.CutPrefix(ref, "refs/remotes/")
	if !ok {
		return "", "", &MissingRemoteError{Branch: upstream}
	}

	// remote names may contain a slash, prefer the configured one
	if current, err := r.CurrentBranch(ctx); err == nil {
		if configured, err := r.run(ctx, "config", "--get", "branch."+current+".remote"); err == nil {
			remote := strings.TrimSpace(configured)
			if branch, ok := strings.CutPrefix(remoteRef, remote+"/"); ok && remote != "" && remote != "." {
				return remote, branch, nil
			}
		}
	}

	remote, branch, ok := strings.Cut(remoteRef, "/")
	if !ok {
		return "", "", &MissingRemoteError{Branch: upstream}
	}
	return remote, branch, nil
}

func (r *Repository) rebaseInProgress(ctx context.Context) bool {
	for _, name := range []string{"rebase-merge", "rebase-apply"} {
		output, err := r.run(ctx, "rev-parse", "--git-path", name)
		if err != nil {
			continue
		}

		path := strings.TrimSpace(output)
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.WorkingDirectory, path)
		}
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}

	return false
}

func (r *Repository) remote() string {
	if r.Remote == "" {
		return DefaultRemote
	}
	return r.Remote
}

func isConflictOutput(output string) bool {
	for _, marker := range []string{"CONFLICT", "could not apply", "Resolve all conflicts"} {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

func isTransportOutput(output string) bool {
	for _, marker := range []string{
		"Could not read from remote repository",
		"Could not resolve host",
		"unable to access",
		"does not appear to be a git repository",
		"Connection refused",
		"Connection timed out",
	} {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}
