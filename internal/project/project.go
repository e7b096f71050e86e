// Package project loads optional per-source-tree defaults from a wext.yaml
// file at the extension source root. Explicit command-line flags always win
// over values found here.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// FileName is the project config file name, relative to the source directory.
const FileName = "wext.yaml"

// Config holds per-project signing defaults.
type Config struct {
	IgnoreFiles  []string `yaml:"ignore_files,omitempty"`
	ArtifactsDir string   `yaml:"artifacts_dir,omitempty"`
	Channel      string   `yaml:"channel,omitempty"`
	APIURLPrefix string   `yaml:"api_url_prefix,omitempty"`
	AMOBaseURL   string   `yaml:"amo_base_url,omitempty"`
}

// Load reads the project config from sourceDir. A missing file is not an
// error: it returns (nil, nil).
func Load(sourceDir string) (*Config, error) {
	path := filepath.Join(sourceDir, FileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading project config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing project config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the project config to sourceDir.
func Save(sourceDir string, cfg *Config) error {
	path := filepath.Join(sourceDir, FileName)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling project config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing project config %s: %w", path, err)
	}
	return nil
}
