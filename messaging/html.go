// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^<>]*>`)

// StripTags returns the plain-text fallback for an HTML message body:
// tags removed, entities unescaped, surrounding whitespace trimmed.
func StripTags(markup string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(markup, "")))
}
