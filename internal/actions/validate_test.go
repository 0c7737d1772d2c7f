package actions

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mxcd/updatify/internal/configuration"
)

func noEnv(string) (string, bool) { return "", false }

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	repo := t.TempDir()

	tests := []struct {
		name      string
		content   string
		repoFlag  string
		env       map[string]string
		wantRepo  string
		wantCmd   string
		wantError bool
	}{
		{
			name:     "file values",
			content:  "repoPath: " + repo + "\nlauncher:\n  command: kdialog --msgbox hi\n",
			wantRepo: repo,
			wantCmd:  "kdialog --msgbox hi",
		},
		{
			name:     "environment wins over file",
			content:  "repoPath: /nowhere\n",
			env:      map[string]string{configuration.RepoPathEnv: repo, configuration.LaunchCommandEnv: "true"},
			wantRepo: repo,
			wantCmd:  "true",
		},
		{
			name:     "flag wins over environment",
			content:  "repoPath: /nowhere\n",
			repoFlag: repo,
			env:      map[string]string{configuration.RepoPathEnv: "/elsewhere"},
			wantRepo: repo,
			wantCmd:  configuration.DefaultLaunchCommand,
		},
		{
			name:      "invalid installer mode",
			content:   "repoPath: " + repo + "\ninstaller:\n  mode: sometimes\n",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig(&LoadOptions{
				ConfigPath:     writeConfig(t, tt.content),
				ConfigRequired: true,
				RepoPath:       tt.repoFlag,
				LookupEnv: func(key string) (string, bool) {
					value, ok := tt.env[key]
					return value, ok
				},
			})

			if tt.wantError {
				var configErr *ConfigError
				if !errors.As(err, &configErr) || len(configErr.Errors) == 0 {
					t.Fatalf("expected ConfigError with validation errors, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if config.RepoPath != tt.wantRepo {
				t.Errorf("RepoPath = %q, want %q", config.RepoPath, tt.wantRepo)
			}
			if config.Launcher.Command != tt.wantCmd {
				t.Errorf("Launcher.Command = %q, want %q", config.Launcher.Command, tt.wantCmd)
			}
		})
	}
}

func TestLoadConfig_MissingRequiredFile(t *testing.T) {
	_, err := LoadConfig(&LoadOptions{
		ConfigPath:     filepath.Join(t.TempDir(), "missing.yml"),
		ConfigRequired: true,
		LookupEnv:      noEnv,
	})

	var configErr *ConfigError
	if !errors.As(err, &configErr) || configErr.Err == nil {
		t.Errorf("expected ConfigError wrapping the load failure, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	repo := t.TempDir()

	t.Run("valid table", func(t *testing.T) {
		var out bytes.Buffer
		err := Validate(&ValidateOptions{
			LoadOptions: LoadOptions{ConfigPath: writeConfig(t, "repoPath: "+repo+"\n"), ConfigRequired: true, LookupEnv: noEnv},
			Output:      &out,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"Effective Configuration", repo, "files-only", "✓ Configuration is valid"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("output missing %q:\n%s", want, out.String())
			}
		}
	})

	t.Run("invalid table", func(t *testing.T) {
		var out bytes.Buffer
		err := Validate(&ValidateOptions{
			LoadOptions: LoadOptions{ConfigPath: writeConfig(t, "repoPath: "+repo+"\ninstaller:\n  mode: sometimes\n"), ConfigRequired: true, LookupEnv: noEnv},
			Output:      &out,
		})
		var configErr *ConfigError
		if !errors.As(err, &configErr) {
			t.Fatalf("expected ConfigError, got %v", err)
		}
		if !strings.Contains(out.String(), "✗ Configuration validation failed") {
			t.Errorf("output missing failure header:\n%s", out.String())
		}
	})

	t.Run("json redacts env values", func(t *testing.T) {
		var out bytes.Buffer
		err := Validate(&ValidateOptions{
			LoadOptions:  LoadOptions{ConfigPath: writeConfig(t, "repoPath: "+repo+"\npostInstall:\n  env:\n    TOKEN: s3cr3t\n"), ConfigRequired: true, LookupEnv: noEnv},
			OutputFormat: "json",
			Output:       &out,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Contains(out.String(), "s3cr3t") {
			t.Errorf("secret leaked into output:\n%s", out.String())
		}

		var document struct {
			Valid     bool                  `json:"valid"`
			Effective *configuration.Config `json:"effective"`
		}
		if err := json.Unmarshal(out.Bytes(), &document); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if !document.Valid || document.Effective.RepoPath != repo {
			t.Errorf("unexpected document %+v", document)
		}
		if document.Effective.PostInstall.Env["TOKEN"] != "********" {
			t.Errorf("TOKEN = %q, want redacted", document.Effective.PostInstall.Env["TOKEN"])
		}
	})
}

func TestValidate_SamePrecedenceAsLoadConfig(t *testing.T) {
	fileRepo, envRepo, flagRepo := t.TempDir(), t.TempDir(), t.TempDir()
	configPath := writeConfig(t, "repoPath: "+fileRepo+"\n")

	tests := []struct {
		name     string
		env      map[string]string
		repoFlag string
		want     string
	}{
		{name: "file", want: fileRepo},
		{name: "environment", env: map[string]string{configuration.RepoPathEnv: envRepo}, want: envRepo},
		{name: "flag", env: map[string]string{configuration.RepoPathEnv: envRepo}, repoFlag: flagRepo, want: flagRepo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			load := LoadOptions{
				ConfigPath:     configPath,
				ConfigRequired: true,
				RepoPath:       tt.repoFlag,
				LookupEnv: func(key string) (string, bool) {
					value, ok := tt.env[key]
					return value, ok
				},
			}

			config, err := LoadConfig(&load)
			if err != nil {
				t.Fatalf("LoadConfig() error: %v", err)
			}

			var out bytes.Buffer
			if err := Validate(&ValidateOptions{LoadOptions: load, OutputFormat: "json", Output: &out}); err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			var document struct {
				Effective *configuration.Config `json:"effective"`
			}
			if err := json.Unmarshal(out.Bytes(), &document); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}

			if config.RepoPath != tt.want || document.Effective.RepoPath != tt.want {
				t.Errorf("LoadConfig repo %q, Validate repo %q, want %q", config.RepoPath, document.Effective.RepoPath, tt.want)
			}
		})
	}
}
