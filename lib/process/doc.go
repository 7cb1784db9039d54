// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the matrixbot binary.
// These functions centralize the raw I/O and process-level concerns
// that exist before or after the structured logger:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Process exit after an unrecoverable error in main().
//   - Building the slog handler the rest of the process logs through.
//   - Cancelling the root context on SIGINT or SIGTERM.
package process
