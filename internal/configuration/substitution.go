package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// SubstitutionContext resolves ${...} placeholders in configuration values
type SubstitutionContext struct {
	baseDir   string // relative SOPS paths are resolved against this directory
	lookupEnv func(string) (string, bool)
	sopsCache map[string]map[string]interface{}
}

// NewSubstitutionContext creates a context that reads the process environment
func NewSubstitutionContext(baseDir string) *SubstitutionContext {
	return &SubstitutionContext{
		baseDir:   baseDir,
		lookupEnv: os.LookupEnv,
		sopsCache: make(map[string]map[string]interface{}),
	}
}

// SubstituteVariables replaces placeholders in input
// Supports:
// - ${VAR_NAME} for environment variables (must be set, may be empty)
// - ${SOPS[path/to/file.yml].path.to.value} for values of SOPS encrypted files
func (ctx *SubstitutionContext) SubstituteVariables(input string) (string, error) {
	var firstErr error

	result := placeholderPattern.ReplaceAllStringFunc(input, func(placeholder string) string {
		if firstErr != nil {
			return placeholder
		}

		expression := placeholder[2 : len(placeholder)-1]
		value, err := ctx.resolve(expression)
		if err != nil {
			firstErr = fmt.Errorf("failed to resolve %s: %w", placeholder, err)
			return placeholder
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func (ctx *SubstitutionContext) resolve(expression string) (string, error) {
	if strings.HasPrefix(expression, "SOPS[") {
		return ctx.resolveSOPSReference(expression)
	}

	value, ok := ctx.lookupEnv(expression)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", expression)
	}
	return value, nil
}

// resolveSOPSReference resolves an expression like SOPS[file.yml].path.to.value
func (ctx *SubstitutionContext) resolveSOPSReference(expression string) (string, error) {
	closeIdx := strings.Index(expression, "]")
	if closeIdx == -1 {
		return "", fmt.Errorf("invalid SOPS reference format (missing ]): %s", expression)
	}

	filePath := expression[len("SOPS["):closeIdx]
	rest := expression[closeIdx+1:]
	if !strings.HasPrefix(rest, ".") || len(rest) < 2 {
		return "", fmt.Errorf("SOPS reference must include a YAML path: %s", expression)
	}
	yamlPath := rest[1:]

	data, err := ctx.loadSOPSFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to load SOPS file %s: %w", filePath, err)
	}

	value, err := GetYAMLValue(data, yamlPath)
	if err != nil {
		return "", fmt.Errorf("failed to access path %s in SOPS file %s: %w", yamlPath, filePath, err)
	}

	return fmt.Sprintf("%v", value), nil
}

// loadSOPSFile decrypts a SOPS file once and caches its content
func (ctx *SubstitutionContext) loadSOPSFile(filePath string) (map[string]interface{}, error) {
	filePath = ExpandHome(filePath)
	if !filepath.IsAbs(filePath) && ctx.baseDir != "" {
		filePath = filepath.Join(ctx.baseDir, filePath)
	}

	if data, ok := ctx.sopsCache[filePath]; ok {
		return data, nil
	}

	data, err := DecryptSOPSFile(filePath)
	if err != nil {
		return nil, err
	}

	ctx.sopsCache[filePath] = data
	return data, nil
}

// SubstituteInConfig substitutes variables in every field that may carry them
func (ctx *SubstitutionContext) SubstituteInConfig(config *Config) error {
	var err error

	if config.RepoPath != "" {
		config.RepoPath, err = ctx.SubstituteVariables(config.RepoPath)
		if err != nil {
			return fmt.Errorf("failed to substitute repoPath: %w", err)
		}
	}

	if config.PostInstall == nil {
		return nil
	}

	if config.PostInstall.Script != "" {
		config.PostInstall.Script, err = ctx.SubstituteVariables(config.PostInstall.Script)
		if err != nil {
			return fmt.Errorf("failed to substitute postInstall.script: %w", err)
		}
	}

	for key, value := range config.PostInstall.Env {
		substituted, err := ctx.SubstituteVariables(value)
		if err != nil {
			return fmt.Errorf("failed to substitute postInstall.env.%s: %w", key, err)
		}
		config.PostInstall.Env[key] = substituted
	}

	return nil
}

// GetYAMLValue retrieves a value from a nested YAML structure using dot notation
// Example: "github.token" accesses data["github"]["token"]
func GetYAMLValue(data map[string]interface{}, path string) (interface{}, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	var current interface{} = data
	for i, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid path: empty segment at position %d", i)
		}

		var (
			value interface{}
			ok    bool
		)
		switch v := current.(type) {
		case map[string]interface{}:
			value, ok = v[part]
		case map[interface{}]interface{}:
			value, ok = v[part]
		default:
			return nil, fmt.Errorf("path not found: %s (cannot traverse into non-map at '%s')", path, part)
		}
		if !ok {
			return nil, fmt.Errorf("path not found: %s (missing key '%s')", path, part)
		}
		current = value
	}

	return current, nil
}

