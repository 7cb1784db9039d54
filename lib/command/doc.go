// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package command interprets the chat command language.
//
// A message is addressed to the bot when, ignoring case and leading
// whitespace, it starts with "<botname>:". The second word is the
// command keyword. Membership commands take a target expression:
//
//	bender: invite [dryrun] (user|+group)... [but (user|+group)...]
//
// Tokens before "but" are included, tokens after it excluded. A
// "+name" token expands to the members of a group from the
// [directory.Directory]. Every identity is normalized to its fully
// qualified form ("alice" becomes "@alice:example.org") before it is
// compared or stored. The final selection is the include list minus
// the exclude list, in first-occurrence order with no duplicates.
//
// Aliases rewrite the keyword before classification: with alias
// "onboard" -> "invite +eng", the body "bender: onboard dave" is read
// as "bender: invite +eng dave".
package command
