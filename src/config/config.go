// Package config loads the optional docsnap.toml project file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-hclog"

	"docsnap/src/docstore"
	"docsnap/src/snapshot"
)

// DefaultFile is looked up in the working directory when --config is not given.
const DefaultFile = "docsnap.toml"

// Config is the project configuration. Zero values are replaced by defaults.
type Config struct {
	// Credentials is the service-account key file used to reach Firestore.
	Credentials string `toml:"credentials"`
	// ProjectID overrides the project recorded in the credential.
	ProjectID string `toml:"project_id"`
	// Collections is the backup scope.
	Collections []string `toml:"collections"`
	// Root is where snapshot directories are created and listed.
	Root     string `toml:"root"`
	LogLevel string `toml:"log_level"`
}

// Default returns the configuration used without a project file.
func Default() *Config {
	c := &Config{}
	_ = validateAndSetDefaults(c)
	return c
}

// Load reads path. With an empty path the default file is used when it
// exists; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := validateAndSetDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate re-checks a configuration after flag overrides.
func (c *Config) Validate() error {
	return validateAndSetDefaults(c)
}

func validateAndSetDefaults(c *Config) error {
	if c.Credentials == "" {
		c.Credentials = docstore.DefaultCredentialsFile
	}
	if len(c.Collections) == 0 {
		c.Collections = append([]string(nil), snapshot.DefaultCollections...)
	}
	if c.Root == "" {
		c.Root = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	seen := map[string]bool{}
	for _, name := range c.Collections {
		if !snapshot.ValidCollectionName(name) {
			return fmt.Errorf("invalid collection name: %q", name)
		}
		if seen[name] {
			return fmt.Errorf("duplicate collection: %s", name)
		}
		seen[name] = true
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("invalid log level: %s (must be trace, debug, info, warn, or error)", c.LogLevel)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	return nil
}
