// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

// Command tlbc is a façade binary exercising the tlbcodec library end
// to end: compiling a TL-B schema, decoding/exporting a cell against
// it, and listing/decoding against a named-schema registry manifest.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/skulidropek/tlb-rest-server/lib/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	configPath, logLevel, args := extractGlobalFlags(args)

	cfg := loadConfig(configPath)
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger := newInvocationLogger(parseLevel(cfg.Logging.Level))

	root := &command{
		Name:        "tlbc",
		Description: "tlbc: TL-B schema codec command line facade.",
		Subcommands: []*command{
			decodeCommand(),
			exportCommand(),
			registryCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ []string, _ *slog.Logger) error {
					fmt.Println("tlbc 0.1.0")
					return nil
				},
			},
		},
	}

	if err := root.Execute(args, logger); err != nil {
		printError("Error", err)
		return 1
	}
	return 0
}

// extractGlobalFlags pulls --config and --log-level (in either
// "--flag value" or "--flag=value" form) out of args before dispatch,
// since they configure the process itself rather than any one
// subcommand and must not collide with a subcommand's own flag set.
func extractGlobalFlags(args []string) (configPath, logLevel string, rest []string) {
	rest = make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			configPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--log-level" && i+1 < len(args):
			logLevel = args[i+1]
			i++
		case strings.HasPrefix(arg, "--log-level="):
			logLevel = strings.TrimPrefix(arg, "--log-level=")
		default:
			rest = append(rest, arg)
		}
	}
	return configPath, logLevel, rest
}

// loadConfig loads tlbc's configuration, falling back to defaults
// rather than failing the whole invocation when neither --config nor
// TLBC_CONFIG is set, or when the file they name cannot be loaded (the
// load error is not reported): unlike a long-running daemon, a
// one-shot CLI facade should work out of the box for ad-hoc schema
// inspection.
func loadConfig(explicitPath string) *config.Config {
	if explicitPath != "" {
		if cfg, err := config.LoadFile(explicitPath); err == nil {
			return cfg
		}
	} else if cfg, err := config.Load(); err == nil {
		return cfg
	}
	return config.Default()
}
