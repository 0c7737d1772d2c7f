package configuration

import (
	"os"
	"path/filepath"
	"strings"
)

// ApplyDefaults fills every unset field of config from NewDefaultConfig.
func ApplyDefaults(config *Config) {
	defaults := NewDefaultConfig()

	if strings.TrimSpace(config.RepoPath) == "" {
		config.RepoPath = defaults.RepoPath
	}

	if config.Installer == nil {
		config.Installer = defaults.Installer
	} else {
		if config.Installer.Mode == "" {
			config.Installer.Mode = defaults.Installer.Mode
		}
		if config.Installer.SetupScript == "" {
			config.Installer.SetupScript = defaults.Installer.SetupScript
		}
	}

	if config.PostInstall == nil {
		config.PostInstall = defaults.PostInstall
	} else if config.PostInstall.Env == nil {
		config.PostInstall.Env = map[string]string{}
	}

	if config.Tweaks == nil {
		config.Tweaks = defaults.Tweaks
	} else if len(config.Tweaks.RemoveFiles) == 0 {
		config.Tweaks.RemoveFiles = defaults.Tweaks.RemoveFiles
	}

	if config.Launcher == nil {
		config.Launcher = defaults.Launcher
	} else if strings.TrimSpace(config.Launcher.Command) == "" {
		config.Launcher.Command = defaults.Launcher.Command
	}
}

// ApplyEnvironment applies environment overrides on top of file values.
// The lookup is injected so callers and tests never read process state ad hoc.
func ApplyEnvironment(config *Config, lookup func(string) (string, bool)) {
	if value, ok := lookup(RepoPathEnv); ok && strings.TrimSpace(value) != "" {
		config.RepoPath = ExpandHome(value)
	}

	if config.Launcher == nil {
		config.Launcher = &LauncherConfig{}
	}
	config.Launcher.Command = ResolveLaunchCommand(config.Launcher.Command, lookup)
}

// ResolveLaunchCommand returns ZEN_CMD when it is set to a non-empty string,
// otherwise fallback, otherwise DefaultLaunchCommand.
func ResolveLaunchCommand(fallback string, lookup func(string) (string, bool)) string {
	if value, ok := lookup(LaunchCommandEnv); ok && value != "" {
		return value
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return DefaultLaunchCommand
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func expandPaths(config *Config) {
	config.RepoPath = ExpandHome(config.RepoPath)

	if config.PostInstall != nil && config.PostInstall.Script != "" {
		config.PostInstall.Script = ExpandHome(config.PostInstall.Script)
	}

	if config.Tweaks != nil {
		for i, file := range config.Tweaks.RemoveFiles {
			config.Tweaks.RemoveFiles[i] = ExpandHome(file)
		}
	}
}
