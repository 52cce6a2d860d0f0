// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the tlbc
// command.
//
// Configuration is loaded from a single file specified by either the
// TLBC_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter:
// AutoText is disabled so ambiguous byte-aligned fields are never
// silently reinterpreted as text.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- master struct with Registry, Decode, Logging settings
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other tlb-rest-server packages.
package config
