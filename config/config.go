// Package config loads the project configuration file, .plugref.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dhamidi/plugref/platform"
)

// DefaultConfigFile is looked up in the project root.
const DefaultConfigFile = ".plugref.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// ManifestNames are the file names treated as plugin manifests.
	ManifestNames []string `yaml:"manifest_names"`
	// KnownPluginIDs are plugin ids declared outside the project, such as
	// library plugins, that usages may refer to.
	KnownPluginIDs []string `yaml:"known_plugin_ids"`
	// Ignore holds gitignore-style patterns of paths to skip.
	Ignore    []string `yaml:"ignore"`
	Verbosity int      `yaml:"verbosity"`
	LogFile   string   `yaml:"log_file"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ManifestNames: []string{platform.DefaultManifestName},
	}
}

// Load reads the configuration at path. A missing file yields the defaults;
// an unreadable, malformed or invalid file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read configuration file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %s: %w", path, err)
	}
	if len(cfg.ManifestNames) == 0 {
		cfg.ManifestNames = Default().ManifestNames
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromRoot loads DefaultConfigFile from a project root.
func LoadFromRoot(root string) (*Config, error) {
	return Load(filepath.Join(root, DefaultConfigFile))
}

func (c *Config) Validate() error {
	for _, id := range c.KnownPluginIDs {
		if !platform.IsValidPluginID(id) {
			return fmt.Errorf("%w: known plugin id %q does not match %s", ErrInvalid, id, "^[a-z][a-z0-9-_]{1,63}$")
		}
	}
	for _, name := range c.ManifestNames {
		if name == "" || filepath.Base(name) != name {
			return fmt.Errorf("%w: manifest name %q must be a plain file name", ErrInvalid, name)
		}
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("%w: verbosity must not be negative", ErrInvalid)
	}
	return nil
}

// IsKnownPluginID reports whether id is declared in known_plugin_ids.
func (c *Config) IsKnownPluginID(id string) bool {
	for _, known := range c.KnownPluginIDs {
		if known == id {
			return true
		}
	}
	return false
}
