// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcodec"
)

func decodeCommand() *command {
	var schemaPath, cell, rootType string
	var byTag bool

	return &command{
		Name:    "decode",
		Summary: "Decode a base64 cell against a TL-B schema",
		Usage:   "tlbc decode --schema FILE --cell BASE64 [--type NAME] [--by-tag]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			fs.StringVar(&schemaPath, "schema", "", "path to a .tlb schema file (required)")
			fs.StringVar(&cell, "cell", "", "base64-encoded single-cell data bits, not a BoC (required)")
			fs.StringVar(&rootType, "type", "", "decode directly against this declared type, bypassing root selection")
			fs.BoolVar(&byTag, "by-tag", true, "select the root constructor by matching its tag bit-prefix")
			return fs
		},
		Run: func(args []string, logger *slog.Logger) error {
			if schemaPath == "" || cell == "" {
				return fmt.Errorf("--schema and --cell are required")
			}
			schemaText, err := os.ReadFile(schemaPath)
			if err != nil {
				return fmt.Errorf("reading schema: %w", err)
			}

			logger.Info("compiling schema", "path", schemaPath)
			rt, err := tlbcodec.Compile(string(schemaText))
			if err != nil {
				printError("Schema Error", err)
				return err
			}

			var v tlbcodec.Value
			if rootType != "" {
				v, err = rt.DecodeByType(rootType, cell)
			} else {
				v, err = rt.Decode(cell, tlbcodec.DecodeOptions{ByTag: byTag})
			}
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
