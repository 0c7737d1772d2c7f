package actions

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mxcd/updatify/internal/configuration"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type ValidateOptions struct {
	LoadOptions
	OutputFormat string
	Output       io.Writer
}

func Validate(options *ValidateOptions) error {
	config, err := resolveConfig(&options.LoadOptions)
	if err != nil {
		return err
	}

	log.Debug().Msg("Configuration loaded successfully")

	validationResult := configuration.ValidateConfiguration(config)

	w := writerOrStdout(options.Output)
	if err := outputValidationResult(w, config, validationResult, options.OutputFormat); err != nil {
		log.Error().Err(err).Msg("Failed to output validation results")
		return fmt.Errorf("output error: %w", err)
	}

	if !validationResult.Valid {
		return &ConfigError{Path: options.ConfigPath, Errors: validationResult.Errors}
	}

	log.Info().Msg("Configuration is valid")
	return nil
}

func outputValidationResult(w io.Writer, config *configuration.Config, result *configuration.ValidationResult, format string) error {
	switch format {
	case "", "table":
		return outputValidationTable(w, config, result)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(validationDocument(config, result))
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		return encoder.Encode(validationDocument(config, result))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func validationDocument(config *configuration.Config, result *configuration.ValidationResult) map[string]interface{} {
	return map[string]interface{}{
		"valid":      result.Valid,
		"errorCount": len(result.Errors),
		"errors":     result.Errors,
		"effective":  redactedConfig(config),
	}
}

// redactedConfig copies config with post-install env values hidden, they may hold decrypted secrets
func redactedConfig(config *configuration.Config) *configuration.Config {
	redacted := *config
	if config.PostInstall != nil {
		postInstall := *config.PostInstall
		postInstall.Env = make(map[string]string, len(config.PostInstall.Env))
		for key := range config.PostInstall.Env {
			postInstall.Env[key] = "********"
		}
		redacted.PostInstall = &postInstall
	}
	return &redacted
}

func outputValidationTable(w io.Writer, config *configuration.Config, result *configuration.ValidationResult) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("⚙️  Effective Configuration")
	t.AppendRows([]table.Row{
		{"Repository", config.RepoPath},
		{"Installer", fmt.Sprintf("%s (./%s)", config.Installer.Mode, config.Installer.SetupScript)},
		{"Post-install script", valueOrDash(config.PostInstall.Script)},
		{"Post-install env", fmt.Sprintf("%d variable(s)", len(config.PostInstall.Env))},
		{"Tweaks", fmt.Sprintf("enabled=%t, %d file(s)", config.Tweaks.Enabled, len(config.Tweaks.RemoveFiles))},
		{"Launch command", config.Launcher.Command},
		{"Launch timeout", timeoutOrNone(config.Launcher.Timeout.String(), config.Launcher.Timeout == 0)},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
	fmt.Fprintln(w)

	if result.Valid {
		fmt.Fprintln(w, "✓ Configuration is valid")
		return nil
	}

	fmt.Fprintln(w, "✗ Configuration validation failed:")
	fmt.Fprintln(w)
	for _, err := range result.Errors {
		fmt.Fprintf(w, "  • %s\n", err.Error())
	}
	fmt.Fprintf(w, "\nTotal errors: %d\n", len(result.Errors))
	return nil
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func timeoutOrNone(value string, none bool) string {
	if none {
		return "none"
	}
	return value
}
