package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/specbot/kickbot/pkg/perception"
	"github.com/specbot/kickbot/pkg/weapon"
)

// LayoutFile is the screen layout and banned weapon catalog file.
type LayoutFile struct {
	Layout  perception.Layout `yaml:"layout"`
	Catalog weapon.Catalog    `yaml:"catalog"`
}

// LoadLayout loads a layout file.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
// Catalog entries missing from the file keep their stock values.
func LoadLayout(path string) (*LayoutFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file %s: %w", path, err)
	}
	return ParseLayout(data)
}

// ParseLayout decodes and validates a layout file.
func ParseLayout(data []byte) (*LayoutFile, error) {
	f := &LayoutFile{Catalog: weapon.DefaultCatalog()}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), f); err != nil {
		return nil, fmt.Errorf("failed to parse layout YAML: %w", err)
	}

	if err := f.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	if err := f.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return f, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		varName, defaultValue, _ := strings.Cut(key, ":")
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}
