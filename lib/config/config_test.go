// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if !cfg.Decode.AutoText {
		t.Error("expected auto_text=true for development")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging.level=info, got %s", cfg.Logging.Level)
	}
}

func TestLoad_RequiresTlbcConfig(t *testing.T) {
	origConfig := os.Getenv("TLBC_CONFIG")
	defer os.Setenv("TLBC_CONFIG", origConfig)
	os.Unsetenv("TLBC_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when TLBC_CONFIG not set, got nil")
	}
	expectedMsg := "TLBC_CONFIG environment variable not set"
	if err.Error()[:len(expectedMsg)] != expectedMsg {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithTlbcConfig(t *testing.T) {
	origConfig := os.Getenv("TLBC_CONFIG")
	defer os.Setenv("TLBC_CONFIG", origConfig)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tlbc.yaml")
	configContent := `
environment: staging
registry:
  manifest_file: /test/schemas.toml
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	os.Setenv("TLBC_CONFIG", configPath)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.Registry.ManifestFile != "/test/schemas.toml" {
		t.Errorf("expected manifest_file=/test/schemas.toml, got %s", cfg.Registry.ManifestFile)
	}
}

func TestLoadFile_ProductionDefaultsDisableAutoText(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tlbc.yaml")
	configContent := `
environment: production
registry:
  manifest_file: /custom/schemas.toml
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Decode.AutoText {
		t.Error("expected auto_text=false under production defaults")
	}
	if !cfg.Decode.ByTag {
		t.Error("expected by_tag=true under production defaults")
	}
}

func TestLoadFile_ExplicitOverrideWins(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tlbc.yaml")
	configContent := `
environment: production
registry:
  manifest_file: /custom/schemas.toml
production:
  decode:
    auto_text: true
    by_tag: false
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !cfg.Decode.AutoText {
		t.Error("expected explicit production override auto_text=true to win")
	}
	if cfg.Decode.ByTag {
		t.Error("expected explicit production override by_tag=false to win")
	}
}

func TestExpandVariables(t *testing.T) {
	os.Setenv("HOME", "/home/tester")
	defer os.Unsetenv("HOME")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tlbc.yaml")
	configContent := `
environment: development
registry:
  manifest_file: ${HOME}/.config/tlbc/schemas.toml
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	want := "/home/tester/.config/tlbc/schemas.toml"
	if cfg.Registry.ManifestFile != want {
		t.Errorf("expected manifest_file=%s, got %s", want, cfg.Registry.ManifestFile)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}

	cfg.Logging.Level = "trace"
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid logging level to fail validation")
	}
}
