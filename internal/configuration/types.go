package configuration

import "time"

const (
	// DefaultLaunchCommand is run by the dialog launcher when ZEN_CMD is unset.
	DefaultLaunchCommand = `zenity --info --text="Hello from GTK!"`

	// LaunchCommandEnv overrides the launcher command when set to a non-empty value.
	LaunchCommandEnv = "ZEN_CMD"

	// RepoPathEnv overrides the dotfiles checkout location.
	RepoPathEnv = "UPDATIFY_REPO_PATH"

	DefaultRepoPath    = "~/dots-hyprland"
	DefaultSetupScript = "setup"
	DefaultConfigPath  = "~/.config/updatify/config.yml"

	// DefaultPortalOverride is removed by the post-update tweaks.
	DefaultPortalOverride = "~/.config/xdg-desktop-portal/hyprland-portals.conf"
)

type Config struct {
	RepoPath    string             `json:"repoPath" yaml:"repoPath"`
	Installer   *InstallerConfig   `json:"installer,omitempty" yaml:"installer,omitempty"`
	PostInstall *PostInstallConfig `json:"postInstall,omitempty" yaml:"postInstall,omitempty"`
	Tweaks      *TweaksConfig      `json:"tweaks,omitempty" yaml:"tweaks,omitempty"`
	Launcher    *LauncherConfig    `json:"launcher,omitempty" yaml:"launcher,omitempty"`
}

type InstallerMode string

const (
	InstallerModeFilesOnly InstallerMode = "files-only"
	InstallerModeFull      InstallerMode = "full"
	InstallerModeNone      InstallerMode = "none"
)

// Args returns the arguments passed to the setup script for the mode.
func (m InstallerMode) Args() []string {
	switch m {
	case InstallerModeFull:
		return []string{"install"}
	case InstallerModeFilesOnly:
		return []string{"install-files"}
	default:
		return nil
	}
}

// Valid reports whether m is one of the known modes
func (m InstallerMode) Valid() bool {
	switch m {
	case InstallerModeFilesOnly, InstallerModeFull, InstallerModeNone:
		return true
	}
	return false
}

type InstallerConfig struct {
	Mode        InstallerMode `json:"mode,omitempty" yaml:"mode,omitempty"`
	SetupScript string        `json:"setupScript,omitempty" yaml:"setupScript,omitempty"` // relative to repoPath
}

type PostInstallConfig struct {
	Script string            `json:"script,omitempty" yaml:"script,omitempty"`
	Env    map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

type TweaksConfig struct {
	Enabled     bool     `json:"enabled" yaml:"enabled"`
	RemoveFiles []string `json:"removeFiles,omitempty" yaml:"removeFiles,omitempty"`
}

type LauncherConfig struct {
	Command string        `json:"command,omitempty" yaml:"command,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// NewDefaultConfig returns a configuration with every section populated.
func NewDefaultConfig() *Config {
	return &Config{
		RepoPath: DefaultRepoPath,
		Installer: &InstallerConfig{
			Mode:        InstallerModeFilesOnly,
			SetupScript: DefaultSetupScript,
		},
		PostInstall: &PostInstallConfig{
			Env: map[string]string{},
		},
		Tweaks: &TweaksConfig{
			Enabled:     false,
			RemoveFiles: []string{DefaultPortalOverride},
		},
		Launcher: &LauncherConfig{
			Command: DefaultLaunchCommand,
		},
	}
}
