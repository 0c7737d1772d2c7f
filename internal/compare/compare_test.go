package compare

import (
	"errors"
	"testing"

	"github.com/mxcd/updatify/internal/git"
)

func TestDetermineSyncState(t *testing.T) {
	tests := []struct {
		ahead, behind int
		want          SyncState
	}{
		{0, 0, SyncStateUpToDate},
		{0, 3, SyncStateBehind},
		{2, 0, SyncStateAhead},
		{1, 1, SyncStateDiverged},
	}

	for _, tt := range tests {
		if got := DetermineSyncState(tt.ahead, tt.behind); got != tt.want {
			t.Errorf("DetermineSyncState(%d, %d) = %s, want %s", tt.ahead, tt.behind, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name        string
		status      *git.RepositoryStatus
		wantState   SyncState
		wantUpdate  bool
		wantStash   bool
		wantStale   bool
		wantSummary string
	}{
		{
			name:        "up to date",
			status:      &git.RepositoryStatus{Branch: "main", Upstream: "origin/main"},
			wantState:   SyncStateUpToDate,
			wantSummary: "Up to date",
		},
		{
			name:        "one commit behind",
			status:      &git.RepositoryStatus{Behind: 1},
			wantState:   SyncStateBehind,
			wantUpdate:  true,
			wantSummary: "1 new commit to pull",
		},
		{
			name:        "behind with dirty tree",
			status:      &git.RepositoryStatus{Behind: 4, Dirty: 2},
			wantState:   SyncStateBehind,
			wantUpdate:  true,
			wantStash:   true,
			wantSummary: "4 new commits to pull",
		},
		{
			name:        "ahead only",
			status:      &git.RepositoryStatus{Ahead: 2, Upstream: "origin/main"},
			wantState:   SyncStateAhead,
			wantSummary: "Up to date (2 local commits not on origin/main)",
		},
		{
			name:        "diverged",
			status:      &git.RepositoryStatus{Ahead: 1, Behind: 2},
			wantState:   SyncStateDiverged,
			wantUpdate:  true,
			wantSummary: "2 new commits to pull, 1 local commit will be rebased",
		},
		{
			name:        "stale after failed fetch",
			status:      &git.RepositoryStatus{FetchError: errors.New("offline")},
			wantState:   SyncStateUpToDate,
			wantStale:   true,
			wantSummary: "Up to date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Compare(tt.status)

			if result.State != tt.wantState {
				t.Errorf("State = %s, want %s", result.State, tt.wantState)
			}
			if result.NeedsUpdate != tt.wantUpdate {
				t.Errorf("NeedsUpdate = %v, want %v", result.NeedsUpdate, tt.wantUpdate)
			}
			if result.NeedsStash != tt.wantStash {
				t.Errorf("NeedsStash = %v, want %v", result.NeedsStash, tt.wantStash)
			}
			if result.Stale != tt.wantStale {
				t.Errorf("Stale = %v, want %v", result.Stale, tt.wantStale)
			}
			if got := result.Summary(); got != tt.wantSummary {
				t.Errorf("Summary() = %q, want %q", got, tt.wantSummary)
			}
		})
	}
}

func TestSyncLine(t *testing.T) {
	result := Compare(&git.RepositoryStatus{Ahead: 1})
	if got := result.SyncLine(); got != "Sync: 1 ahead, not behind" {
		t.Errorf("SyncLine() = %q", got)
	}
}
