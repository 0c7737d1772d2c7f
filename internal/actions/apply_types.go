package actions

import (
	"github.com/mxcd/updatify/internal/configuration"
	"github.com/mxcd/updatify/internal/git"
)

// ApplyOptions represents options for the update command
type ApplyOptions struct {
	PostInstallScript string                      // overrides postInstall.script
	InstallerMode     configuration.InstallerMode // overrides installer.mode
	ApplyTweaks       bool
	DryRun            bool
}

// ApplyPlan lists the steps an update will perform
type ApplyPlan struct {
	Branch        string
	Upstream      string
	Head          string
	Commits       []git.CommitSummary
	Stash         bool
	Pull          bool
	SetupScript   string // relative to the checkout
	InstallerArgs []string
	PostInstall   string
	RemoveFiles   []string
}

// Steps returns the number of steps with visible progress
func (p *ApplyPlan) Steps() int {
	steps := 1 // fetch
	if p.Stash {
		steps += 2 // stash and restore
	}
	if p.Pull {
		steps++
	}
	if len(p.InstallerArgs) > 0 {
		steps++
	}
	if p.PostInstall != "" {
		steps++
	}
	if len(p.RemoveFiles) > 0 {
		steps++
	}
	return steps
}

// ApplyResult records what an update did. It is returned alongside errors
// so callers can report partial progress such as a stash left behind.
type ApplyResult struct {
	Plan           *ApplyPlan
	DryRun         bool
	Applied        bool
	OldHead        string
	NewHead        string
	Diffstat       string
	Stashed        bool
	StashRestored  bool
	InstallerRan   bool
	PostInstallRan bool
	RemovedFiles   []string
	Warnings       []string
}
