package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigFile is used when --config is not given.
const DefaultConfigFile = "mdcr.toml"

// defaultConfigNames are tried in order when looking for a config file.
var defaultConfigNames = []string{DefaultConfigFile, "mdcr.yaml", "mdcr.yml", "mdcr.json"}

// DefaultInclude matches Markdown files at any depth of a directory target.
var DefaultInclude = []string{"**.md", "**.markdown"}

// DefaultExclude skips dependency and VCS trees.
var DefaultExclude = []string{"**/node_modules/**", "node_modules/**", "**/.git/**", ".git/**"}

// DefaultConfig returns an empty Config ready to receive presets.
func DefaultConfig() *Config {
	return &Config{}
}

// Locate returns the first default config file present in dir, or the TOML
// default when none exists.
func Locate(dir string) string {
	for _, name := range defaultConfigNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(dir, DefaultConfigFile)
}

// DefaultFileFor returns the default config file name for format.
func DefaultFileFor(format string) string {
	switch format {
	case "yaml":
		return "mdcr.yaml"
	case "json":
		return "mdcr.json"
	default:
		return DefaultConfigFile
	}
}
