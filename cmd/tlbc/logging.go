// Copyright 2026 The TLB Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// newInvocationLogger creates a structured logger for one CLI
// invocation, tagged with a random correlation id so a single run's
// log lines (schema compilation, registry loading, decode/encode
// failures) can be grepped out of aggregated operator logs.
func newInvocationLogger(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("invocation_id", uuid.NewString())
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
