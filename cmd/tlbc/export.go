// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/skulidropek/tlb-rest-server/lib/tlbcodec"
	"github.com/skulidropek/tlb-rest-server/lib/tlbexport"
)

func exportCommand() *command {
	var schemaPath, cell, rootType, outPath string
	var byTag bool

	return &command{
		Name:    "export",
		Summary: "Decode a cell and emit its value tree as CBOR",
		Usage:   "tlbc export --schema FILE --cell BASE64 [--type NAME] [--by-tag] [--out FILE]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
			fs.StringVar(&schemaPath, "schema", "", "path to a .tlb schema file (required)")
			fs.StringVar(&cell, "cell", "", "base64-encoded single-cell data bits, not a BoC (required)")
			fs.StringVar(&rootType, "type", "", "decode directly against this declared type, bypassing root selection")
			fs.BoolVar(&byTag, "by-tag", true, "select the root constructor by matching its tag bit-prefix")
			fs.StringVar(&outPath, "out", "", "write CBOR bytes here instead of printing base64 to stdout")
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

			out, err := tlbexport.Marshal(v)
			if err != nil {
				printError("Export Error", err)
				return err
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, out, 0644); err != nil {
					return fmt.Errorf("writing %s: %w", outPath, err)
				}
				printSuccess(fmt.Sprintf("wrote %d CBOR bytes to %s", len(out), outPath))
				return nil
			}

			fmt.Println(base64.StdEncoding.EncodeToString(out))
			return nil
		},
	}
}
