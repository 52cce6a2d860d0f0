// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &command{
		Name: "tlbc",
		Subcommands: []*command{
			{
				Name: "version",
				Run: func(args []string, logger *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "decode",
				Run: func(args []string, logger *slog.Logger) error {
					called = "decode"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"decode"}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "decode" {
		t.Errorf("dispatched to %q, want %q", called, "decode")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &command{
		Name: "tlbc",
		Subcommands: []*command{
			{
				Name: "registry",
				Subcommands: []*command{
					{
						Name: "list",
						Run: func(args []string, logger *slog.Logger) error {
							called = "registry list"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"registry", "list", "extra-arg"}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "registry list" {
		t.Errorf("dispatched to %q, want %q", called, "registry list")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra-arg" {
		t.Errorf("args = %v, want [extra-arg]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var schemaPath string
	var target string

	cmd := &command{
		Name: "decode",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			fs.StringVar(&schemaPath, "schema", "default.tlb", "schema path")
			return fs
		},
		Run: func(args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := cmd.Execute([]string{"--schema", "custom.tlb", "AAA="}, testLogger()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if schemaPath != "custom.tlb" {
		t.Errorf("schemaPath = %q, want %q", schemaPath, "custom.tlb")
	}
	if target != "AAA=" {
		t.Errorf("target = %q, want %q", target, "AAA=")
	}
}

func TestCommand_Execute_UnknownSubcommand(t *testing.T) {
	root := &command{
		Name: "tlbc",
		Subcommands: []*command{
			{Name: "decode", Run: func(args []string, logger *slog.Logger) error { return nil }},
		},
	}

	err := root.Execute([]string{"nonexistent"}, testLogger())
	if err == nil {
		t.Fatal("expected an error for an unknown subcommand")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("error = %q, want it to mention an unknown command", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	root := &command{
		Name:    "tlbc",
		Summary: "schema codec facade",
	}

	for _, helpArg := range []string{"-h", "--help", "help"} {
		if err := root.Execute([]string{helpArg}, testLogger()); err != nil {
			t.Errorf("Execute(%q) error: %v", helpArg, err)
		}
	}
}

func TestCommand_Execute_NoSubcommandRequiresOne(t *testing.T) {
	root := &command{
		Name: "tlbc",
		Subcommands: []*command{
			{Name: "decode", Run: func(args []string, logger *slog.Logger) error { return nil }},
		},
	}

	if err := root.Execute(nil, testLogger()); err == nil {
		t.Fatal("expected an error when no subcommand is given")
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	cmd := &command{
		Name:        "tlbc",
		Description: "TL-B schema codec facade.",
		Subcommands: []*command{
			{Name: "decode", Summary: "Decode a cell"},
			{Name: "export", Summary: "Export a cell to CBOR"},
		},
	}

	var buf bytes.Buffer
	cmd.PrintHelp(&buf)
	out := buf.String()

	for _, want := range []string{"TL-B schema codec facade.", "decode", "Decode a cell", "export"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q:\n%s", want, out)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &command{Name: "tlbc"}
	child := &command{Name: "registry", parent: root}
	grandchild := &command{Name: "list", parent: child}

	if got := grandchild.fullName(); got != "tlbc registry list" {
		t.Errorf("fullName() = %q, want %q", got, "tlbc registry list")
	}
}
