// Package config loads figforge settings from defaults, an optional YAML
// file and FIGFORGE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/figforge/pkg/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FIGFORGE_"

// Config is the full set of runtime settings.
type Config struct {
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"logLevel"`
	Image    Image  `yaml:"image"`
	Script   Script `yaml:"script"`
	Events   Events `yaml:"events"`
}

// Image configures image source loading.
type Image struct {
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	MaxBytes     int64         `yaml:"maxBytes"`
}

// Script configures the script engine.
type Script struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Events configures the notification hub.
type Events struct {
	Buffer int `yaml:"buffer"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Listen:   "127.0.0.1:7420",
		LogLevel: "info",
		Image: Image{
			FetchTimeout: 15 * time.Second,
			MaxBytes:     32 << 20,
		},
		Script: Script{Timeout: 5 * time.Second},
		Events: Events{Buffer: 64},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then the environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays FIGFORGE_* variables found by lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}
	num := func(name string, dst *int64) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("LISTEN", &c.Listen)
	str("LOG_LEVEL", &c.LogLevel)

	buffer := int64(c.Events.Buffer)
	err := errors.Join(
		dur("IMAGE_FETCH_TIMEOUT", &c.Image.FetchTimeout),
		num("IMAGE_MAX_BYTES", &c.Image.MaxBytes),
		dur("SCRIPT_TIMEOUT", &c.Script.Timeout),
		num("EVENTS_BUFFER", &buffer),
	)
	c.Events.Buffer = int(buffer)
	return err
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Image.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("image.fetchTimeout must be positive, got %s", c.Image.FetchTimeout))
	}
	if c.Image.MaxBytes < 0 {
		errs = append(errs, fmt.Errorf("image.maxBytes must not be negative, got %d", c.Image.MaxBytes))
	}
	if c.Script.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("script.timeout must be positive, got %s", c.Script.Timeout))
	}
	if c.Events.Buffer <= 0 {
		errs = append(errs, fmt.Errorf("events.buffer must be positive, got %d", c.Events.Buffer))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
