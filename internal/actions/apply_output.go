package actions

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mxcd/updatify/internal/git"
	"github.com/schollz/progressbar/v3"
)

// stepBar shows how many update steps are done
type stepBar struct {
	bar *progressbar.ProgressBar
}

func newStepBar(steps int, w io.Writer) *stepBar {
	if w == nil {
		w = io.Discard
	}

	bar := progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Updating:"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	return &stepBar{bar: bar}
}

func (s *stepBar) step(description string) {
	s.bar.Describe(description)
	_ = s.bar.Add(1)
}

// clear removes the bar from the terminal before a subprocess writes to it
func (s *stepBar) clear() {
	_ = s.bar.Clear()
}

func (s *stepBar) finish() {
	_ = s.bar.Finish()
}

// outputApplyPlan prints the commits that will be pulled and the steps that will run
func outputApplyPlan(w io.Writer, plan *ApplyPlan, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, "\n🔍 DRY RUN - Update Plan")
		fmt.Fprintln(w, "========================")
	} else {
		fmt.Fprintln(w, "\n📦 Update Plan")
	}

	fmt.Fprintf(w, "Branch %s ← %s\n\n", plan.Branch, plan.Upstream)

	if len(plan.Commits) > 0 {
		outputCommitTable(w, plan.Commits)
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, "✅ No new commits upstream")
	}

	verb := "Will"
	if dryRun {
		verb = "Would"
	}

	if plan.Stash {
		fmt.Fprintf(w, "   📥 %s stash local changes as '%s' and restore them afterwards\n", verb, git.StashMessage)
	}
	if plan.Pull {
		fmt.Fprintf(w, "   🔀 %s rebase %s onto %s\n", verb, plan.Branch, plan.Upstream)
	}
	if len(plan.InstallerArgs) > 0 {
		fmt.Fprintf(w, "   🛠️  %s run ./%s %s\n", verb, plan.SetupScript, strings.Join(plan.InstallerArgs, " "))
	}
	if plan.PostInstall != "" {
		fmt.Fprintf(w, "   ⚙️  %s run post-install script %s\n", verb, plan.PostInstall)
	}
	for _, file := range plan.RemoveFiles {
		fmt.Fprintf(w, "   🧹 %s remove %s\n", verb, file)
	}
	fmt.Fprintln(w)
}

func outputCommitTable(w io.Writer, commits []git.CommitSummary) {
	now := time.Now()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Commit", "Author", "When", "Subject"})
	for _, commit := range commits {
		t.AppendRow(table.Row{commit.ShortHash, commit.Author, formatAgo(now, commit.Date), commit.Subject})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// outputApplyResult prints the outcome of every step that ran
func outputApplyResult(w io.Writer, result *ApplyResult, errs []error) {
	fmt.Fprintln(w)

	if result.Plan != nil && !result.Plan.Pull {
		fmt.Fprintln(w, "✅ Already up to date")
	} else if result.Applied {
		fmt.Fprintf(w, "✅ Updated %s → %s\n", shortHash(result.OldHead), shortHash(result.NewHead))
	}

	if result.StashRestored {
		fmt.Fprintln(w, "✓ Local changes restored")
	}
	var installerErr *InstallerError
	if result.InstallerRan && !errors.As(errors.Join(errs...), &installerErr) {
		fmt.Fprintln(w, "✓ Installer finished")
	}
	var postInstallErr *PostInstallError
	if result.PostInstallRan && !errors.As(errors.Join(errs...), &postInstallErr) {
		fmt.Fprintln(w, "✓ Post-install script finished")
	}
	for _, file := range result.RemovedFiles {
		fmt.Fprintf(w, "✓ Removed %s\n", file)
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "⚠️  %s\n", warning)
	}

	for _, err := range errs {
		fmt.Fprintf(w, "❌ %v\n", err)
	}
	if len(errs) > 0 && result.Applied {
		fmt.Fprintln(w, "   The update itself was applied and is kept.")
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
