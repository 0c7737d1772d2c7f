package actions

import (
	"os"

	"github.com/mxcd/updatify/internal/configuration"
	"github.com/rs/zerolog/log"
)

type LoadOptions struct {
	ConfigPath     string
	ConfigRequired bool   // fail instead of using defaults when the file is missing
	RepoPath       string // --repo flag, wins over file and environment
	LookupEnv      func(string) (string, bool)
}

// LoadConfig resolves the effective configuration: defaults, then the file,
// then the environment, then flags. The result is validated.
func LoadConfig(options *LoadOptions) (*configuration.Config, error) {
	config, err := resolveConfig(options)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("repoPath", config.RepoPath).
		Str("launchCommand", config.Launcher.Command).
		Msg("Configuration loaded successfully")

	validationResult := configuration.ValidateConfiguration(config)
	if !validationResult.Valid {
		log.Error().Msg("Configuration validation failed")
		for _, validationErr := range validationResult.Errors {
			log.Error().Str("field", validationErr.Field).Msg(validationErr.Message)
		}
		return nil, &ConfigError{Path: options.ConfigPath, Errors: validationResult.Errors}
	}

	return config, nil
}

// resolveConfig applies the precedence defaults < file < environment < flags without validating
func resolveConfig(options *LoadOptions) (*configuration.Config, error) {
	log.Debug().Str("config", options.ConfigPath).Msg("Loading configuration...")

	config, err := configuration.LoadConfigurationOrDefault(options.ConfigPath, options.ConfigRequired)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, &ConfigError{Path: options.ConfigPath, Err: err}
	}

	lookup := options.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	configuration.ApplyEnvironment(config, lookup)

	if options.RepoPath != "" {
		config.RepoPath = configuration.ExpandHome(options.RepoPath)
	}

	return config, nil
}
