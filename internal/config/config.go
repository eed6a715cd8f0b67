package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override file values.
const EnvPrefix = "AIQA_"

// ErrNotConfigured is returned by Validate when a required key is missing.
var ErrNotConfigured = errors.New("aiqa is not configured")

// Load reads configuration from the given JSON file, then overlays
// environment variable overrides (AIQA_*). A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	// JSON is a subset of YAML, so the YAML parser reads it as-is.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// AIQA_BASE_URL -> base_url, etc.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path as indented JSON, or as YAML when
// the path has a .yaml or .yml extension.
func (c *Config) Save(path string) error {
	data, err := c.marshal(path)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

func (c *Config) marshal(path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlv3.Marshal(c)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Validate checks that the required keys are present and the optional ones
// are well formed. Missing required keys wrap ErrNotConfigured.
func (c *Config) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "apikey")
	}
	if c.BaseURL == "" {
		missing = append(missing, "base_url")
	}
	if c.ModelName == "" {
		missing = append(missing, "model_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}

	if utf8.RuneCountInString(c.Cmd) != 1 {
		return fmt.Errorf("cmd must be exactly one character, got %q", c.Cmd)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.OneBotURL == "" {
		return fmt.Errorf("onebot_url is required")
	}
	if !strings.HasPrefix(c.OneBotURL, "ws://") && !strings.HasPrefix(c.OneBotURL, "wss://") {
		return fmt.Errorf("invalid onebot_url %q: must be a ws:// or wss:// URL", c.OneBotURL)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}
	if c.WaitTimeout != "" {
		d, err := time.ParseDuration(c.WaitTimeout)
		if err != nil {
			return fmt.Errorf("invalid wait_timeout %q: %w", c.WaitTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("wait_timeout must be positive")
		}
	}
	return nil
}

// CmdRune returns the command character.
func (c *Config) CmdRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Cmd)
	return r
}

// Wait returns the browser wait timeout, falling back to ten seconds.
func (c *Config) Wait() time.Duration {
	d, err := time.ParseDuration(c.WaitTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}
