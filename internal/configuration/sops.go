package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getsops/sops/v3/decrypt"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// sopsFormat returns the SOPS store format for a file, judged by its extension
func sopsFormat(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		return "json"
	case ".env":
		return "dotenv"
	default:
		return "yaml"
	}
}

// DecryptSOPSFile decrypts a SOPS file (yaml, json or dotenv) and returns its content
// as a nested map. Key resolution (age, pgp, cloud KMS) follows the usual SOPS environment.
func DecryptSOPSFile(filePath string) (map[string]interface{}, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("cannot read SOPS file: %w", err)
	}

	format := sopsFormat(filePath)
	cleartext, err := decrypt.File(filePath, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt SOPS file: %w", err)
	}

	return parseSOPSCleartext(cleartext, format)
}

func parseSOPSCleartext(cleartext []byte, format string) (map[string]interface{}, error) {
	if format == "dotenv" {
		values, err := godotenv.UnmarshalBytes(cleartext)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decrypted dotenv: %w", err)
		}
		data := make(map[string]interface{}, len(values))
		for key, value := range values {
			data[key] = value
		}
		return data, nil
	}

	// yaml.v3 reads json as well
	var data map[string]interface{}
	if err := yaml.Unmarshal(cleartext, &data); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted %s: %w", format, err)
	}

	return data, nil
}
