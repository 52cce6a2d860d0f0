// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcodec"
	"github.com/skulidropek/tlb-rest-server/lib/tlbregistry"
)

func registryCommand() *command {
	return &command{
		Name:    "registry",
		Summary: "Inspect a named-schema manifest",
		Subcommands: []*command{
			registryListCommand(),
			registryDecodeCommand(),
		},
	}
}

func registryListCommand() *command {
	var manifestPath string

	return &command{
		Name:    "list",
		Summary: "List the schemas a manifest registers",
		Usage:   "tlbc registry list --manifest FILE",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
			fs.StringVar(&manifestPath, "manifest", "", "path to the JSONC schema manifest (required)")
			return fs
		},
		Run: func(args []string, logger *slog.Logger) error {
			if manifestPath == "" {
				return fmt.Errorf("--manifest is required")
			}
			logger.Info("loading registry", "manifest", manifestPath)
			reg, err := tlbregistry.Load(manifestPath)
			if err != nil {
				printError("Registry Error", err)
				return err
			}
			for _, name := range reg.Names() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func registryDecodeCommand() *command {
	var manifestPath, name, cell string
	var byTag bool

	return &command{
		Name:    "decode",
		Summary: "Decode a cell against a named schema from a manifest",
		Usage:   "tlbc registry decode --manifest FILE --name NAME --cell BASE64 [--by-tag]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			fs.StringVar(&manifestPath, "manifest", "", "path to the JSONC schema manifest (required)")
			fs.StringVar(&name, "name", "", "registered schema name (required)")
			fs.StringVar(&cell, "cell", "", "base64-encoded single-cell data bits, not a BoC (required)")
			fs.BoolVar(&byTag, "by-tag", true, "select the root constructor by matching its tag bit-prefix")
			return fs
		},
		Run: func(args []string, logger *slog.Logger) error {
			if manifestPath == "" || name == "" || cell == "" {
				return fmt.Errorf("--manifest, --name, and --cell are required")
			}
			logger.Info("loading registry", "manifest", manifestPath)
			reg, err := tlbregistry.Load(manifestPath)
			if err != nil {
				printError("Registry Error", err)
				return err
			}
			rt, ok := reg.Get(name)
			if !ok {
				err := fmt.Errorf("no schema named %q in %s (have: %v)", name, manifestPath, reg.Names())
				printError("Registry Error", err)
				return err
			}
			v, err := rt.Decode(cell, tlbcodec.DecodeOptions{ByTag: byTag})
			if err != nil {
				printError("Decode Error", err)
				return err
			}
			renderValue(v)
			printSuccess("decoded successfully")
			return nil
		},
	}
}
