// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for matrixbot packages.
//
// [RequireReceive] and [RequireClosed] wrap the timeout safety valve
// around goroutines a test starts: the sync loop under a fake clock,
// a SyncOnce blocked in retry delays. Everything else in the suite
// runs on clock.Fake; these helpers are the only place real wall-clock
// timeouts are used, and only to turn a hang into a failure.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
