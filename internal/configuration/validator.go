package configuration

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mattn/go-shellwords"
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the results of configuration validation
type ValidationResult struct {
	Valid  bool
	Errors []*ValidationError
}

// AddError adds a validation error to the result
func (r *ValidationResult) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, &ValidationError{
		Field:   field,
		Message: message,
	})
}

// ValidateConfiguration performs validation on a loaded configuration
func ValidateConfiguration(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:  true,
		Errors: make([]*ValidationError, 0),
	}

	if strings.TrimSpace(config.RepoPath) == "" {
		result.AddError("repoPath", "repository path cannot be empty")
	}

	validateInstaller(config.Installer, result)
	validatePostInstall(config.PostInstall, result)
	validateTweaks(config.Tweaks, result)
	validateLauncher(config.Launcher, result)

	return result
}

func validateInstaller(installer *InstallerConfig, result *ValidationResult) {
	if installer == nil {
		return
	}

	if !installer.Mode.Valid() {
		result.AddError("installer.mode", fmt.Sprintf("invalid installer mode: %s (expected files-only, full or none)", installer.Mode))
	}

	if filepath.IsAbs(installer.SetupScript) {
		result.AddError("installer.setupScript", "setup script must be relative to repoPath")
	}
	if strings.Contains(filepath.ToSlash(installer.SetupScript), "../") {
		result.AddError("installer.setupScript", "setup script must stay inside repoPath")
	}
}

func validatePostInstall(postInstall *PostInstallConfig, result *ValidationResult) {
	if postInstall == nil {
		return
	}

	for key := range postInstall.Env {
		if !envNamePattern.MatchString(key) {
			result.AddError(fmt.Sprintf("postInstall.env.%s", key), "invalid environment variable name")
		}
	}
}

func validateTweaks(tweaks *TweaksConfig, result *ValidationResult) {
	if tweaks == nil {
		return
	}

	for i, file := range tweaks.RemoveFiles {
		if !filepath.IsAbs(file) {
			result.AddError(fmt.Sprintf("tweaks.removeFiles[%d]", i), fmt.Sprintf("path must be absolute or start with ~/: %s", file))
		}
	}
}

func validateLauncher(launcher *LauncherConfig, result *ValidationResult) {
	if launcher == nil {
		return
	}

	if strings.TrimSpace(launcher.Command) == "" {
		result.AddError("launcher.command", "launch command cannot be empty")
	} else if words, err := shellwords.Parse(launcher.Command); err != nil {
		result.AddError("launcher.command", fmt.Sprintf("cannot split launch command: %v", err))
	} else if len(words) == 0 {
		result.AddError("launcher.command", "launch command has no program")
	}

	if launcher.Timeout < 0 {
		result.AddError("launcher.timeout", "timeout cannot be negative")
	}
}
