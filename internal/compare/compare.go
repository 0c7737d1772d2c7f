package compare

import (
	"fmt"

	"github.com/mxcd/updatify/internal/git"
	"github.com/rs/zerolog/log"
)

// SyncState describes how the checkout relates to its upstream
type SyncState string

const (
	SyncStateUpToDate SyncState = "up-to-date"
	SyncStateBehind   SyncState = "behind"
	SyncStateAhead    SyncState = "ahead"
	SyncStateDiverged SyncState = "diverged"
)

// ComparisonResult represents the result of comparing a checkout with its upstream
type ComparisonResult struct {
	Path        string
	Branch      string
	Upstream    string
	Head        string
	State       SyncState
	Ahead       int
	Behind      int
	Dirty       int
	NeedsUpdate bool
	NeedsStash  bool
	Stale       bool // remote refs could not be refreshed
	Error       error
}

// Compare classifies a repository status
func Compare(status *git.RepositoryStatus) *ComparisonResult {
	result := &ComparisonResult{
		Path:       status.Path,
		Branch:     status.Branch,
		Upstream:   status.Upstream,
		Head:       status.Head,
		Ahead:      status.Ahead,
		Behind:     status.Behind,
		Dirty:      status.Dirty,
		State:      DetermineSyncState(status.Ahead, status.Behind),
		NeedsStash: status.IsDirty(),
		Stale:      status.FetchError != nil,
		Error:      status.FetchError,
	}

	// only remote commits count as updates; local-only commits are rebased on top
	result.NeedsUpdate = status.Behind > 0

	log.Debug().
		Str("branch", result.Branch).
		Str("state", string(result.State)).
		Bool("needsUpdate", result.NeedsUpdate).
		Bool("needsStash", result.NeedsStash).
		Msg("Compared checkout with upstream")

	return result
}

// DetermineSyncState maps ahead/behind counts to a state
func DetermineSyncState(ahead, behind int) SyncState {
	switch {
	case ahead > 0 && behind > 0:
		return SyncStateDiverged
	case behind > 0:
		return SyncStateBehind
	case ahead > 0:
		return SyncStateAhead
	default:
		return SyncStateUpToDate
	}
}

// Summary returns a one-line human readable description
func (r *ComparisonResult) Summary() string {
	switch r.State {
	case SyncStateBehind:
		return fmt.Sprintf("%d new commit%s to pull", r.Behind, plural(r.Behind))
	case SyncStateAhead:
		return fmt.Sprintf("Up to date (%d local commit%s not on %s)", r.Ahead, plural(r.Ahead), r.Upstream)
	case SyncStateDiverged:
		return fmt.Sprintf("%d new commit%s to pull, %d local commit%s will be rebased", r.Behind, plural(r.Behind), r.Ahead, plural(r.Ahead))
	default:
		return "Up to date"
	}
}

// SyncLine describes ahead/behind in the "Sync: 1 ahead, not behind" form
func (r *ComparisonResult) SyncLine() string {
	ahead := "not ahead"
	if r.Ahead > 0 {
		ahead = fmt.Sprintf("%d ahead", r.Ahead)
	}
	behind := "not behind"
	if r.Behind > 0 {
		behind = fmt.Sprintf("%d behind", r.Behind)
	}
	return fmt.Sprintf("Sync: %s, %s", ahead, behind)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
