package git

import (
	"iter"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// StashMessage marks stashes created by the updater
const StashMessage = "updatify-auto"

// DefaultRemote is used when the branch has no configured upstream
const DefaultRemote = "origin"

// Repository represents a local dotfiles checkout
type Repository struct {
	WorkingDirectory string
	Remote           string
}

// RepositoryStatus is a snapshot of the checkout at check time
type RepositoryStatus struct {
	Path      string
	Branch    string
	Upstream  string
	Head      string
	Ahead     int
	Behind    int
	Dirty     int
	CheckedAt time.Time

	// FetchError is set when the status was computed from stale remote refs
	FetchError error
}

// HasUpdates reports whether the upstream has commits the checkout lacks
func (s *RepositoryStatus) HasUpdates() bool {
	return s.Behind > 0
}

// IsDirty reports whether the work tree has local modifications
func (s *RepositoryStatus) IsDirty() bool {
	return s.Dirty > 0
}

// CommitSummary describes one pending upstream commit
type CommitSummary struct {
	Hash        string    `json:"hash" yaml:"hash"`
	ShortHash   string    `json:"shortHash" yaml:"shortHash"`
	Author      string    `json:"author" yaml:"author"`
	AuthorEmail string    `json:"authorEmail" yaml:"authorEmail"`
	Date        time.Time `json:"date" yaml:"date"`
	Subject     string    `json:"subject" yaml:"subject"`
}

// PendingCommits is the newest-first list of commits between HEAD and the
// upstream at the time it was read. It can be iterated exactly once; any
// later iteration yields nothing.
type PendingCommits struct {
	lines    []string
	consumed atomic.Bool
}

func newPendingCommits(lines []string) *PendingCommits {
	return &PendingCommits{lines: lines}
}

// Len returns the number of commits the sequence was created with
func (p *PendingCommits) Len() int {
	if p == nil {
		return 0
	}
	return len(p.lines)
}

// All returns the one-shot iterator over the pending commits
func (p *PendingCommits) All() iter.Seq[CommitSummary] {
	return func(yield func(CommitSummary) bool) {
		if p == nil || !p.consumed.CompareAndSwap(false, true) {
			return
		}

		for _, line := range p.lines {
			commit, err := parseCommitLine(line)
			if err != nil {
				log.Warn().Err(err).Str("line", line).Msg("Skipping unparsable commit line")
				continue
			}
			if !yield(commit) {
				return
			}
		}
	}
}

// Consumed reports whether the sequence has already been iterated
func (p *PendingCommits) Consumed() bool {
	return p != nil && p.consumed.Load()
}
