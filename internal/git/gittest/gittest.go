// Package gittest builds throwaway git remotes and clones for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Fixture is a bare remote with two clones: Local is the checkout under test,
// Publisher is used to push new upstream commits.
type Fixture struct {
	Remote    string
	Local     string
	Publisher string
}

// New creates a fixture on branch main with one initial commit. The test is
// skipped when git is not installed.
func New(t *testing.T) *Fixture {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	Isolate(t)

	root := t.TempDir()
	seed := filepath.Join(root, "seed")
	fixture := &Fixture{
		Remote:    filepath.Join(root, "remote.git"),
		Local:     filepath.Join(root, "local"),
		Publisher: filepath.Join(root, "publisher"),
	}

	Run(t, root, "init", "-q", seed)
	Run(t, seed, "symbolic-ref", "HEAD", "refs/heads/main")
	Commit(t, seed, "README.md", "# dots\n", "initial commit")

	Run(t, root, "clone", "-q", "--bare", seed, fixture.Remote)
	Run(t, root, "clone", "-q", fixture.Remote, fixture.Local)
	Run(t, root, "clone", "-q", fixture.Remote, fixture.Publisher)

	return fixture
}

// Isolate points git at an empty home and a fixed identity
func Isolate(t *testing.T) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Dots Tester")
	t.Setenv("GIT_AUTHOR_EMAIL", "tester@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Dots Tester")
	t.Setenv("GIT_COMMITTER_EMAIL", "tester@example.com")
}

// Run executes git in dir and fails the test on error
func Run(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s failed: %v, output: %s", strings.Join(args, " "), err, output)
	}

	return strings.TrimSpace(string(output))
}

// WriteFile writes content to name inside dir
func WriteFile(t *testing.T, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

// Commit writes a file and commits it
func Commit(t *testing.T, dir, name, content, message string) {
	t.Helper()

	WriteFile(t, dir, name, content)
	Run(t, dir, "add", name)
	Run(t, dir, "commit", "-q", "-m", message)
}

// Publish commits a file in the publisher clone and pushes it to the remote
func (f *Fixture) Publish(t *testing.T, name, content, message string) {
	t.Helper()

	Commit(t, f.Publisher, name, content, message)
	Run(t, f.Publisher, "push", "-q", "origin", "main")
}
