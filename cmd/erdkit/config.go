package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFile is the project configuration file name.
const configFile = ".erdkit.yaml"

// Config is the .erdkit.yaml project configuration. Command-line flags
// take precedence over every field.
type Config struct {
	// Source is the default diagram document path.
	Source string `yaml:"source,omitempty"`

	// Export holds export defaults.
	Export ExportConfig `yaml:"export,omitempty"`

	// Apply holds database connection defaults for the apply command.
	Apply ApplyConfig `yaml:"apply,omitempty"`
}

// ExportConfig holds defaults for the export command.
type ExportConfig struct {
	Format  string `yaml:"format,omitempty"`
	Out     string `yaml:"out,omitempty"`
	Package string `yaml:"package,omitempty"`
}

// ApplyConfig holds connection defaults for the apply command.
type ApplyConfig struct {
	Dialect string `yaml:"dialect,omitempty"`
	DSN     string `yaml:"dsn,omitempty"`
}

// loadConfig walks up from startDir looking for .erdkit.yaml. A missing
// file is not an error; the zero config is returned.
func loadConfig(startDir string) (*Config, error) {
	dir := startDir
	for {
		path := filepath.Join(dir, configFile)
		data, err := os.ReadFile(path)
		if err == nil {
			var cfg Config
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			return &cfg, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return &Config{}, nil
		}
		dir = parent
	}
}

func loadConfigHere() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return loadConfig(cwd)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
