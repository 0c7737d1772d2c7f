package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mxcd/updatify/internal/compare"
	"github.com/mxcd/updatify/internal/configuration"
	"github.com/mxcd/updatify/internal/git"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type StatusOptions struct {
	Config       *configuration.Config
	OutputFormat string
	Filter       string
	Output       io.Writer
}

type StatusResult struct {
	Comparison *compare.ComparisonResult
	Commits    []git.CommitSummary
	CheckedAt  time.Time
}

// HasUpdates reports whether the upstream has commits to pull
func (r *StatusResult) HasUpdates() bool {
	return r.Comparison != nil && r.Comparison.NeedsUpdate
}

func Status(ctx context.Context, options *StatusOptions) (*StatusResult, error) {
	log.Debug().Str("repo", options.Config.RepoPath).Msg("Checking repository status...")

	repo := git.NewRepository(options.Config.RepoPath)

	status, err := repo.Status(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read repository status")
		return nil, err
	}

	pending, err := repo.PendingCommits(ctx, status.Upstream)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read pending commits")
		return nil, err
	}

	result := &StatusResult{
		Comparison: compare.Compare(status),
		Commits:    filterCommits(pending.All(), options.Filter),
		CheckedAt:  status.CheckedAt,
	}

	if err := outputStatus(writerOrStdout(options.Output), result, options.OutputFormat); err != nil {
		log.Error().Err(err).Msg("Failed to output status")
		return nil, fmt.Errorf("output error: %w", err)
	}

	if result.HasUpdates() {
		log.Info().Int("behind", result.Comparison.Behind).Msg("Updates are available")
	} else {
		log.Info().Msg("Repository is up to date")
	}

	return result, nil
}

// filterCommits drains commits, keeping those whose subject, author or hash contains filter
func filterCommits(commits iter.Seq[git.CommitSummary], filter string) []git.CommitSummary {
	filter = strings.ToLower(strings.TrimSpace(filter))

	filtered := make([]git.CommitSummary, 0)
	for commit := range commits {
		if filter == "" ||
			strings.Contains(strings.ToLower(commit.Subject), filter) ||
			strings.Contains(strings.ToLower(commit.Author), filter) ||
			strings.HasPrefix(commit.Hash, filter) {
			filtered = append(filtered, commit)
		}
	}
	return filtered
}

func outputStatus(w io.Writer, result *StatusResult, format string) error {
	switch format {
	case "", "table":
		return outputStatusTable(w, result)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(statusDocument(result))
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		return encoder.Encode(statusDocument(result))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func statusDocument(result *StatusResult) map[string]interface{} {
	comparison := result.Comparison

	fetchError := ""
	if comparison.Error != nil {
		fetchError = comparison.Error.Error()
	}

	return map[string]interface{}{
		"path":        comparison.Path,
		"branch":      comparison.Branch,
		"upstream":    comparison.Upstream,
		"head":        comparison.Head,
		"state":       comparison.State,
		"ahead":       comparison.Ahead,
		"behind":      comparison.Behind,
		"dirty":       comparison.Dirty,
		"needsUpdate": comparison.NeedsUpdate,
		"fetchError":  fetchError,
		"checkedAt":   result.CheckedAt.Format(time.RFC3339),
		"commits":     result.Commits,
	}
}

func outputStatusTable(w io.Writer, result *StatusResult) error {
	comparison := result.Comparison
	now := time.Now()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("🔍 Repository Status")

	state := "✅ " + comparison.Summary()
	if comparison.NeedsUpdate {
		state = "🔄 " + comparison.Summary()
	}

	t.AppendRows([]table.Row{
		{"Path", comparison.Path},
		{"Branch", comparison.Branch},
		{"Upstream", comparison.Upstream},
		{"Status", state},
		{"Sync", strings.TrimPrefix(comparison.SyncLine(), "Sync: ")},
		{"Local changes", formatDirty(comparison.Dirty)},
		{"Last checked", formatAgo(now, result.CheckedAt)},
	})
	if comparison.Stale {
		t.AppendRow(table.Row{"Fetch", fmt.Sprintf("⚠️  %v", comparison.Error)})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(result.Commits) == 0 {
		return nil
	}

	fmt.Fprintln(w)

	commits := table.NewWriter()
	commits.SetOutputMirror(w)
	commits.SetTitle(fmt.Sprintf("📝 Pending Commits (%d)", len(result.Commits)))
	commits.AppendHeader(table.Row{"Commit", "Author", "When", "Subject"})
	for _, commit := range result.Commits {
		commits.AppendRow(table.Row{
			commit.ShortHash,
			commit.Author,
			formatAgo(now, commit.Date),
			commit.Subject,
		})
	}
	commits.SetStyle(table.StyleRounded)
	commits.Render()

	return nil
}

func formatDirty(count int) string {
	switch count {
	case 0:
		return "clean"
	case 1:
		return "1 file changed (will be stashed)"
	default:
		return fmt.Sprintf("%d files changed (will be stashed)", count)
	}
}

// formatAgo renders the time elapsed since t as "42s ago", "5m ago", "3h ago" or "2d ago"
func formatAgo(now, t time.Time) string {
	seconds := int64(now.Sub(t).Seconds())
	if seconds < 0 {
		seconds = 0
	}

	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
