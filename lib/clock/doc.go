// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction.
//
// The sync loop, the retrying invoker, and the plugin gates all wait on
// a Clock instead of calling time.Sleep directly. In production Real()
// provides the standard library behavior. In tests Fake() provides a
// clock that moves only when Advance is called; WaitForTimers blocks
// until a goroutine has registered its wait, removing the race between
// registration and advancing.
package clock
