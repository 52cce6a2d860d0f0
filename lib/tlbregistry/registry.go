// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

// Package tlbregistry loads a JSONC manifest naming several TL-B
// schema files and compiles each into a ready-to-use Runtime,
// resolvable by name. Real TL-B-consuming tooling (wallets, block
// explorers) juggles several named schemas at once, one per
// contract/message family; this package is the seam that lets a
// caller load them all once at startup and look them up by name
// afterward. The manifest is JSON extended with // comments, /* block
// comments */, and trailing commas, so a hand-maintained list of
// schemas can carry a note next to each entry.
package tlbregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcell"
	"github.com/skulidropek/tlb-rest-server/lib/tlbcodec"
)

// Runtime is the subset of tlbcodec.Runtime's surface the registry
// depends on. Any compiled schema implements it; tests can substitute
// a stub without pulling in a full tlbcodec.Runtime.
type Runtime interface {
	Decode(input string, opts tlbcodec.DecodeOptions) (tlbcodec.Value, error)
	Encode(v tlbcodec.Value) (*tlbcell.Cell, error)
}

// manifest is the JSONC document shape a registry loads: a top-level
// "schema" array of name/path pairs.
type manifest struct {
	Schema []schemaEntry `json:"schema"`
}

type schemaEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Registry holds one compiled Runtime per named schema.
type Registry struct {
	runtimes map[string]Runtime
	names    []string // manifest order, for listing
}

// Get resolves a compiled schema by name.
func (r *Registry) Get(name string) (Runtime, bool) {
	rt, ok := r.runtimes[name]
	return rt, ok
}

// Names returns every registered schema name in manifest order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Load reads the JSONC manifest at manifestPath and compiles every
// listed schema file. Schema paths are resolved relative to the
// manifest's own directory when not absolute, so a manifest and its
// schemas can be moved together as a unit.
func Load(manifestPath string) (*Registry, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("tlbregistry: reading manifest %s: %w", manifestPath, err)
	}

	var m manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("tlbregistry: parsing manifest %s: %w", manifestPath, err)
	}

	baseDir := filepath.Dir(manifestPath)
	reg := &Registry{runtimes: map[string]Runtime{}}

	for _, entry := range m.Schema {
		if entry.Name == "" {
			return nil, fmt.Errorf("tlbregistry: manifest %s: schema entry missing name", manifestPath)
		}
		if _, exists := reg.runtimes[entry.Name]; exists {
			return nil, fmt.Errorf("tlbregistry: manifest %s: duplicate schema name %q", manifestPath, entry.Name)
		}
		if entry.Path == "" {
			return nil, fmt.Errorf("tlbregistry: manifest %s: schema %q missing path", manifestPath, entry.Name)
		}

		path := entry.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		schemaText, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("tlbregistry: schema %q: reading %s: %w", entry.Name, path, err)
		}

		rt, err := tlbcodec.Compile(string(schemaText))
		if err != nil {
			return nil, fmt.Errorf("tlbregistry: schema %q: compiling %s: %w", entry.Name, path, err)
		}

		reg.runtimes[entry.Name] = rt
		reg.names = append(reg.names, entry.Name)
	}

	return reg, nil
}
