// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for tlbc.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Registry configures named-schema manifest loading.
	Registry RegistryConfig `yaml:"registry"`

	// Decode configures default decoding behaviour.
	Decode DecodeConfig `yaml:"decode"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Development, Staging, and Production hold per-environment field
	// overrides, applied on top of the base config once Environment is
	// known.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides holds the subset of Config that an environment
// section may override.
type ConfigOverrides struct {
	Registry *RegistryConfig `yaml:"registry,omitempty"`
	Decode   *DecodeConfig   `yaml:"decode,omitempty"`
	Logging  *LoggingConfig  `yaml:"logging,omitempty"`
}

// RegistryConfig configures the named-schema manifest.
type RegistryConfig struct {
	// ManifestFile is the path to the JSONC registry manifest listing
	// named schemas (lib/tlbregistry).
	ManifestFile string `yaml:"manifest_file"`
}

// DecodeConfig configures default decoding behaviour.
type DecodeConfig struct {
	// AutoText enables the Bits-field UTF-8 auto-detection heuristic.
	// Default: true (development/staging), false (production).
	AutoText bool `yaml:"auto_text"`

	// ByTag selects the root constructor by matching a leading tag
	// bit-prefix instead of guessing the root type.
	// Default: true.
	ByTag bool `yaml:"by_tag"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is the minimum slog level to emit: "debug", "info", "warn", "error".
	// Default: info.
	Level string `yaml:"level"`
}

// Default returns a Config with development-environment zero values,
// so a freshly-loaded file only needs to specify what it wants to
// change.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Registry: RegistryConfig{
			ManifestFile: filepath.Join(homeDir, ".config", "tlbc", "schemas.jsonc"),
		},
		Decode: DecodeConfig{
			AutoText: true,
			ByTag:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the file named by the TLBC_CONFIG environment variable.
// It is the only implicit way to locate a config file; there is no
// ~/.config search and no other fallback.
func Load() (*Config, error) {
	configPath := os.Getenv("TLBC_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("TLBC_CONFIG environment variable not set; " +
			"set it to the path of your tlbc.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile reads the YAML file at path over Default, applies the
// environment section matching the loaded Environment, and expands
// ${VAR} references in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// productionHardening is the override applied when Environment is
// Production and the file supplies no explicit production section:
// auto-detecting text fields is a convenience that shouldn't run
// unattended against untrusted production input.
func productionHardening() *ConfigOverrides {
	return &ConfigOverrides{
		Decode: &DecodeConfig{
			AutoText: false,
			ByTag:    true,
		},
	}
}

// applyEnvironmentOverrides merges the ConfigOverrides section
// matching c.Environment into the base config, section by section.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = productionHardening()
		}
	}
	if overrides == nil {
		return
	}

	if overrides.Registry != nil {
		mergeFields(&c.Registry, overrides.Registry)
	}
	if overrides.Decode != nil {
		mergeFields(&c.Decode, overrides.Decode)
	}
	if overrides.Logging != nil {
		mergeFields(&c.Logging, overrides.Logging)
	}
}

// mergeFields copies each field of src into the matching field of
// dst, which must point to a value of the same struct type as src.
// String (and other non-bool) fields are copied only when non-zero,
// since an empty string in an override section means "not set". Bool
// fields have no such "unset" value, so they are always copied,
// matching how a YAML section always supplies both of a bool field's
// two states.
func mergeFields(dst, src any) {
	dv := reflect.ValueOf(dst).Elem()
	sv := reflect.ValueOf(src).Elem()
	for i := 0; i < sv.NumField(); i++ {
		sf := sv.Field(i)
		if sf.Kind() == reflect.Bool || !sf.IsZero() {
			dv.Field(i).Set(sf)
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// path-like config fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Registry.ManifestFile = expandVars(c.Registry.ManifestFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Registry.ManifestFile == "" {
		errs = append(errs, fmt.Errorf("registry.manifest_file is required"))
	}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
