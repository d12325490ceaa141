package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/codegram/codegram/internal/preview"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CODEGRAM_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CODEGRAM_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// CODEGRAM_SERVER_PORT -> server.port, CODEGRAM_PREVIEW_SETTLE_DELAY ->
	// preview.settle_delay.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps an environment variable to a config key. The first
// underscore after the prefix separates the section from the field.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 0 and 65535", c.Server.Port)
	}

	if c.Preview.Debounce < 0 {
		return fmt.Errorf("preview.debounce must be non-negative")
	}
	if c.Preview.SettleDelay < 0 {
		return fmt.Errorf("preview.settle_delay must be non-negative")
	}
	if _, err := preview.ParseViewport(c.Preview.DefaultViewport); err != nil {
		return fmt.Errorf("invalid preview.default_viewport: %w", err)
	}

	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "" && !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log.format %q: must be json or console", c.Log.Format)
	}

	if c.Demo.FakePosts < 0 {
		return fmt.Errorf("demo.fake_posts must be non-negative")
	}

	return nil
}

// Viewport returns the configured default viewport mode.
func (c *Config) Viewport() preview.ViewportMode {
	mode, err := preview.ParseViewport(c.Preview.DefaultViewport)
	if err != nil {
		return preview.ViewportDesktop
	}
	return mode
}
