// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package invoke retries homeserver calls with a fixed delay.
//
// Every remote operation the bot performs is one of a closed set of
// typed calls (SendMessage, InviteUser, CreateRoom, ...). Do runs a
// call against a [messaging.Session] up to a caller-chosen number of
// attempts, waiting DefaultDelay between failures. The result is a
// (value, ok) pair: ok=false means the action was not confirmed and may
// or may not have reached the server. Errors are logged with attempt
// context and absorbed; callers that must react to a failure branch on
// ok.
//
// Retries are sequential with no backoff growth and no jitter. The bot
// is single-threaded and its call volume is low, so a constant delay
// cannot produce a retry storm.
package invoke
