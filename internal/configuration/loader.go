package configuration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// LoadConfiguration reads and parses the configuration from the given path
// If the path is a directory, it loads all .yml files within it and merges them
// It also performs environment variable and SOPS substitution, fills defaults
// and expands ~ in path fields
func LoadConfiguration(configPath string) (*Config, error) {
	configPath = ExpandHome(configPath)

	// Check if path is a directory
	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access configuration path: %w", err)
	}

	var config *Config
	if fileInfo.IsDir() {
		// Load all .yml files from directory
		config, err = loadConfigurationFromDirectory(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		// Load single configuration file
		config, err = loadSingleConfigurationFile(configPath)
		if err != nil {
			return nil, err
		}
	}

	// SOPS paths in the file are relative to the file's directory
	baseDir := configPath
	if !fileInfo.IsDir() {
		baseDir = filepath.Dir(configPath)
	}

	// Perform variable substitution
	ctx := NewSubstitutionContext(baseDir)
	if err := ctx.SubstituteInConfig(config); err != nil {
		return nil, fmt.Errorf("failed to substitute variables: %w", err)
	}

	ApplyDefaults(config)
	expandPaths(config)

	return config, nil
}

// LoadConfigurationOrDefault behaves like LoadConfiguration, but a missing file
// yields the default configuration unless required is set
func LoadConfigurationOrDefault(configPath string, required bool) (*Config, error) {
	config, err := LoadConfiguration(configPath)
	if err == nil {
		return config, nil
	}

	if required || !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	log.Debug().Str("config", configPath).Msg("No configuration file found, using defaults")

	config = NewDefaultConfig()
	expandPaths(config)
	return config, nil
}

// loadSingleConfigurationFile reads and parses a single configuration file
func loadSingleConfigurationFile(configPath string) (*Config, error) {
	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	// Parse the YAML configuration
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration YAML: %w", err)
	}

	return &config, nil
}

// loadConfigurationFromDirectory loads all .yml files from a directory and merges them
// in lexical order, later files overriding earlier ones
func loadConfigurationFromDirectory(dirPath string) (*Config, error) {
	// Read directory entries
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration directory: %w", err)
	}

	// Collect all .yml files
	var configFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml") {
			configFiles = append(configFiles, filepath.Join(dirPath, name))
		}
	}

	if len(configFiles) == 0 {
		return nil, fmt.Errorf("no .yml or .yaml files found in directory: %s", dirPath)
	}
	sort.Strings(configFiles)

	log.Debug().
		Str("directory", dirPath).
		Int("fileCount", len(configFiles)).
		Msg("Loading configuration from directory")

	// Load all configuration files
	var configs []*Config
	for _, filePath := range configFiles {
		config, err := loadSingleConfigurationFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", filePath, err)
		}
		configs = append(configs, config)
	}

	return mergeConfigurations(configs), nil
}

// mergeConfigurations merges multiple Config objects into a single Config
// Set fields of later configs override earlier ones; postInstall env maps are merged key by key
func mergeConfigurations(configs []*Config) *Config {
	merged := &Config{}

	for _, config := range configs {
		if config.RepoPath != "" {
			merged.RepoPath = config.RepoPath
		}

		if config.Installer != nil {
			if merged.Installer == nil {
				merged.Installer = &InstallerConfig{}
			}
			if config.Installer.Mode != "" {
				merged.Installer.Mode = config.Installer.Mode
			}
			if config.Installer.SetupScript != "" {
				merged.Installer.SetupScript = config.Installer.SetupScript
			}
		}

		if config.PostInstall != nil {
			if merged.PostInstall == nil {
				merged.PostInstall = &PostInstallConfig{Env: map[string]string{}}
			}
			if config.PostInstall.Script != "" {
				merged.PostInstall.Script = config.PostInstall.Script
			}
			for key, value := range config.PostInstall.Env {
				merged.PostInstall.Env[key] = value
			}
		}

		// Tweaks are taken as a whole block
		if config.Tweaks != nil {
			merged.Tweaks = config.Tweaks
		}

		if config.Launcher != nil {
			if merged.Launcher == nil {
				merged.Launcher = &LauncherConfig{}
			}
			if config.Launcher.Command != "" {
				merged.Launcher.Command = config.Launcher.Command
			}
			if config.Launcher.Timeout != 0 {
				merged.Launcher.Timeout = config.Launcher.Timeout
			}
		}
	}

	return merged
}
