// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"log/slog"
)

// NewLogger creates the process logger and installs it as the slog
// default so that third-party code using slog.Info etc. gets the same
// handler. format is "text" or "json".
func NewLogger(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case "", "text":
		handler = slog.NewTextHandler(w, options)
	case "json":
		handler = slog.NewJSONHandler(w, options)
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}
