// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Matrixbot is a Matrix membership bot. It logs in to a homeserver,
// long-polls /sync, and answers commands addressed to it by name:
// inviting and kicking users and directory groups, listing groups,
// members and rooms, and printing help. Plugins run alongside the sync
// loop: scheduled subscriptions and revocations, a buildbot feed, and
// a journal of membership actions queried with the history command.
//
// Configuration comes from a single YAML file named by --config or
// MATRIXBOT_CONFIG. See lib/config for the recognized options.
package main
