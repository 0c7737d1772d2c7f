package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mxcd/updatify/internal/configuration"
	"github.com/mxcd/updatify/internal/git"
	"github.com/mxcd/updatify/internal/git/gittest"
	"gopkg.in/yaml.v3"
)

func statusConfig(repoPath string) *configuration.Config {
	config := configuration.NewDefaultConfig()
	config.RepoPath = repoPath
	return config
}

func TestStatus_JSON(t *testing.T) {
	fixture := gittest.New(t)
	fixture.Publish(t, "hypr/keybinds.conf", "bind = SUPER, Q\n", "add keybinds")
	fixture.Publish(t, "hypr/colors.conf", "$accent = blue\n", "theme colors")
	gittest.WriteFile(t, fixture.Local, "README.md", "# edited\n")

	var out bytes.Buffer
	result, err := Status(context.Background(), &StatusOptions{
		Config:       statusConfig(fixture.Local),
		OutputFormat: "json",
		Output:       &out,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.HasUpdates() || len(result.Commits) != 2 {
		t.Errorf("expected 2 pending commits, got %+v", result)
	}

	var document map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &document); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}

	if document["state"] != "behind" || document["behind"] != float64(2) || document["dirty"] != float64(1) {
		t.Errorf("unexpected document %v", document)
	}
	commits, ok := document["commits"].([]interface{})
	if !ok || len(commits) != 2 {
		t.Fatalf("expected 2 commits in document, got %v", document["commits"])
	}
}

func TestStatus_YAMLFilter(t *testing.T) {
	fixture := gittest.New(t)
	fixture.Publish(t, "hypr/keybinds.conf", "bind = SUPER, Q\n", "add keybinds")
	fixture.Publish(t, "hypr/colors.conf", "$accent = blue\n", "theme colors")

	var out bytes.Buffer
	result, err := Status(context.Background(), &StatusOptions{
		Config:       statusConfig(fixture.Local),
		OutputFormat: "yaml",
		Filter:       "THEME",
		Output:       &out,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Commits) != 1 || result.Commits[0].Subject != "theme colors" {
		t.Errorf("filter kept %+v", result.Commits)
	}

	var document map[string]interface{}
	if err := yaml.Unmarshal(out.Bytes(), &document); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out.String())
	}
	keys := slices.Sorted(maps.Keys(document))
	for _, want := range []string{"branch", "commits", "needsUpdate", "upstream"} {
		if !slices.Contains(keys, want) {
			t.Errorf("document missing %q, keys %v", want, keys)
		}
	}
}

func TestStatus_Table(t *testing.T) {
	fixture := gittest.New(t)
	fixture.Publish(t, "hypr/keybinds.conf", "bind = SUPER, Q\n", "add keybinds")

	var out bytes.Buffer
	if _, err := Status(context.Background(), &StatusOptions{
		Config: statusConfig(fixture.Local),
		Output: &out,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Repository Status", "1 new commit to pull", "Pending Commits (1)", "add keybinds", "clean"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestStatus_UnsupportedFormat(t *testing.T) {
	fixture := gittest.New(t)

	_, err := Status(context.Background(), &StatusOptions{
		Config:       statusConfig(fixture.Local),
		OutputFormat: "xml",
		Output:       &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestFilterCommits(t *testing.T) {
	commits := []git.CommitSummary{
		{Hash: "abc123", Author: "Alice", Subject: "hypr: new keybinds"},
		{Hash: "def456", Author: "Bob", Subject: "waybar: fix clock"},
		{Hash: "abd789", Author: "alice", Subject: "readme"},
	}

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{name: "empty keeps all", filter: "", want: []string{"abc123", "def456", "abd789"}},
		{name: "subject", filter: "waybar", want: []string{"def456"}},
		{name: "author case insensitive", filter: "ALICE", want: []string{"abc123", "abd789"}},
		{name: "hash prefix", filter: "ab", want: []string{"abc123", "abd789"}},
		{name: "whitespace trimmed", filter: "  readme ", want: []string{"abd789"}},
		{name: "no match", filter: "zsh", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterCommits(slices.Values(commits), tt.filter)
			hashes := make([]string, 0, len(got))
			for _, commit := range got {
				hashes = append(hashes, commit.Hash)
			}
			if !slices.Equal(hashes, tt.want) {
				t.Errorf("filterCommits(%q) = %v, want %v", tt.filter, hashes, tt.want)
			}
		})
	}
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{ago: -time.Minute, want: "0s ago"},
		{ago: 42 * time.Second, want: "42s ago"},
		{ago: 5 * time.Minute, want: "5m ago"},
		{ago: 3*time.Hour + 59*time.Minute, want: "3h ago"},
		{ago: 50 * time.Hour, want: "2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatAgo(now, now.Add(-tt.ago)); got != tt.want {
				t.Errorf("formatAgo(%s) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}

func TestFormatDirty(t *testing.T) {
	for count, want := range map[int]string{
		0: "clean",
		1: "1 file changed (will be stashed)",
		4: "4 files changed (will be stashed)",
	} {
		if got := formatDirty(count); got != want {
			t.Errorf("formatDirty(%d) = %q, want %q", count, got, want)
		}
	}
}
