// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot runs the chat bot: the long-poll sync loop, command
// dispatch, and the outbound surface plugins use.
//
// One goroutine does everything. Each cycle of [Bot.Run] fetches a
// sync response, feeds it to the room directory, advances the cursor,
// and then (unless the cycle is suppressed) accepts same-domain
// invitations and routes addressed text messages to their commands:
// invite, kick, list, list_rooms, list_groups, help, then the plugins,
// then help again as the fallback. Plugins tick after dispatch and
// the loop sleeps for the configured period.
//
// Remote calls go through lib/invoke with fixed budgets: three
// attempts for chat-driven membership changes, sends and joins, one
// attempt for startup joins, room names and scheduled membership
// changes. A call that exhausts its budget is logged and dropped.
//
// Replies to commands are private: [Bot.SendPrivateMessage] finds or
// creates the direct room with the requester through the
// [rooms.Resolver].
package bot
