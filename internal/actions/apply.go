package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/mxcd/updatify/internal/configuration"
	"github.com/mxcd/updatify/internal/git"
	"github.com/rs/zerolog/log"
)

// Updater applies upstream changes to the dotfiles checkout. At most one
// Apply runs at a time per Updater.
type Updater struct {
	config *configuration.Config
	repo   *git.Repository

	// Output receives the user-facing report, Progress the step bar.
	// Stdin is handed to the installer, which may prompt.
	Output   io.Writer
	Progress io.Writer
	Stdin    io.Reader

	// Confirm is asked after the plan was printed. Nil applies without asking.
	Confirm func(plan *ApplyPlan) (bool, error)

	mu sync.Mutex
}

func NewUpdater(config *configuration.Config) *Updater {
	return &Updater{
		config:   config,
		repo:     git.NewRepository(config.RepoPath),
		Output:   os.Stdout,
		Progress: os.Stderr,
	}
}

// Apply fetches, stashes local changes, rebases onto the upstream, restores
// the stash, runs the installer, then the post-install script and tweaks.
//
// A failure up to and including the pull is returned as the git error and
// nothing after it runs; a stash created before a failed pull stays in place.
// Failures after the pull are joined into the returned error while the
// update stays applied.
func (u *Updater) Apply(ctx context.Context, options *ApplyOptions) (*ApplyResult, error) {
	if !u.mu.TryLock() {
		return nil, ErrUpdateInProgress
	}
	defer u.mu.Unlock()

	log.Debug().Str("repo", u.config.RepoPath).Bool("dryRun", options.DryRun).Msg("Starting update...")

	result := &ApplyResult{DryRun: options.DryRun}
	w := writerOrStdout(u.Output)

	plan, err := u.plan(ctx, options)
	if err != nil {
		return result, err
	}
	result.Plan = plan
	result.OldHead = plan.Head

	outputApplyPlan(w, plan, options.DryRun)
	if options.DryRun {
		return result, nil
	}

	if u.Confirm != nil {
		ok, err := u.Confirm(plan)
		if err != nil {
			return result, err
		}
		if !ok {
			log.Info().Msg("Update cancelled")
			return result, ErrUpdateCancelled
		}
	}

	bar := newStepBar(plan.Steps(), u.Progress)
	bar.step("Fetched remote changes")

	if plan.Stash {
		bar.step("Stashing local changes")
		stashed, err := u.repo.Stash(ctx)
		if err != nil {
			bar.finish()
			return result, err
		}
		result.Stashed = stashed
	}

	if plan.Pull {
		bar.step("Applying upstream changes")
		diffstat, err := u.repo.Pull(ctx, plan.Upstream)
		if err != nil {
			bar.finish()
			log.Error().Err(err).Msg("Failed to apply update")
			if result.Stashed {
				fmt.Fprintf(w, "⚠️  Local changes remain stashed as '%s' (see 'git stash list')\n", git.StashMessage)
			}
			return result, err
		}
		result.Diffstat = diffstat
	}

	result.Applied = true
	if head, err := u.repo.Head(ctx); err == nil {
		result.NewHead = head
	}

	var errs []error

	if result.Stashed {
		bar.step("Restoring local changes")
		if err := u.repo.StashPop(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to restore stash")
			errs = append(errs, err)
		} else {
			result.StashRestored = true
		}
	}

	if len(plan.InstallerArgs) > 0 {
		bar.step("Running installer")
		bar.clear()
		if err := u.runInstaller(ctx, plan.InstallerArgs, result); err != nil {
			log.Error().Err(err).Msg("Installer failed")
			errs = append(errs, err)
		}
	}

	if plan.PostInstall != "" {
		bar.step("Running post-install script")
		bar.clear()
		if err := u.runPostInstall(ctx, plan.PostInstall, result); err != nil {
			log.Error().Err(err).Msg("Post-install script failed")
			errs = append(errs, err)
		}
	}

	if len(plan.RemoveFiles) > 0 {
		bar.step("Applying tweaks")
		result.RemovedFiles = removeTweakFiles(plan.RemoveFiles, result)
	}

	bar.finish()
	outputApplyResult(w, result, errs)

	return result, errors.Join(errs...)
}

// plan fetches and works out which steps the update needs
func (u *Updater) plan(ctx context.Context, options *ApplyOptions) (*ApplyPlan, error) {
	if err := u.repo.IsRepository(ctx); err != nil {
		return nil, err
	}

	branch, err := u.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}

	// fetch first, the upstream fallback needs refs/remotes/<remote>/<branch>
	if err := u.repo.Fetch(ctx); err != nil {
		return nil, err
	}

	upstream, err := u.repo.Upstream(ctx, branch)
	if err != nil {
		return nil, err
	}

	head, err := u.repo.Head(ctx)
	if err != nil {
		return nil, err
	}

	_, behind, err := u.repo.AheadBehind(ctx, upstream)
	if err != nil {
		return nil, err
	}

	dirty, err := u.repo.DirtyCount(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := u.repo.PendingCommits(ctx, upstream)
	if err != nil {
		return nil, err
	}

	plan := &ApplyPlan{
		Branch:   branch,
		Upstream: upstream,
		Head:     head,
		Commits:  slices.Collect(pending.All()),
		Pull:     behind > 0,
	}
	plan.Stash = plan.Pull && dirty > 0

	mode := u.config.Installer.Mode
	if options.InstallerMode != "" {
		mode = options.InstallerMode
	}
	plan.InstallerArgs = mode.Args()
	plan.SetupScript = u.config.Installer.SetupScript

	plan.PostInstall = u.config.PostInstall.Script
	if options.PostInstallScript != "" {
		plan.PostInstall = configuration.ExpandHome(options.PostInstallScript)
	}
	if plan.PostInstall != "" {
		if abs, err := filepath.Abs(plan.PostInstall); err == nil {
			plan.PostInstall = abs
		}
	}

	if options.ApplyTweaks || u.config.Tweaks.Enabled {
		plan.RemoveFiles = u.config.Tweaks.RemoveFiles
	}

	log.Debug().
		Str("upstream", upstream).
		Int("commits", len(plan.Commits)).
		Bool("stash", plan.Stash).
		Strs("installer", plan.InstallerArgs).
		Str("postInstall", plan.PostInstall).
		Msg("Planned update")

	return plan, nil
}
