// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// UserID is a validated Matrix user ID (e.g., "@alice:example.org").
//
// A Matrix user ID always starts with '@' and contains a ':'
// separating the localpart from the server name.
//
// UserID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw Matrix user ID string.
// Returns an error if the string is empty, doesn't start with '@',
// has an empty localpart, or is missing the ':server' suffix.
func ParseUserID(raw string) (UserID, error) {
	if _, _, err := parseMatrixID(raw); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID is like ParseUserID but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseUserID(raw string) UserID {
	userID, err := ParseUserID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseUserID(%q): %v", raw, err))
	}
	return userID
}

// NewUserID constructs a user ID from a localpart and server name.
func NewUserID(localpart, server string) (UserID, error) {
	return ParseUserID("@" + localpart + ":" + server)
}

// NormalizeUserID converts a bare localpart ("alice"), a sigil-prefixed
// localpart ("@alice"), or a full user ID ("@alice:example.org") into a
// fully-qualified UserID. A missing '@' is added and a missing
// ':server' suffix is completed with server. Surrounding whitespace is
// ignored.
//
//	NormalizeUserID("alice", "example.org")             → @alice:example.org
//	NormalizeUserID("@alice", "example.org")            → @alice:example.org
//	NormalizeUserID("@alice:other.org", "example.org")  → @alice:other.org
func NormalizeUserID(raw, server string) (UserID, error) {
	normalized := strings.TrimSpace(raw)
	if !strings.HasPrefix(normalized, "@") {
		normalized = "@" + normalized
	}
	if !strings.Contains(normalized, ":") {
		normalized = normalized + ":" + server
	}
	return ParseUserID(normalized)
}

// String returns the full user ID string (e.g., "@alice:example.org").
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is the zero value (uninitialized).
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the localpart portion of the user ID (without the
// '@' prefix or ':server' suffix). Returns "" for the zero value.
func (u UserID) Localpart() string {
	localpart, _, err := parseMatrixID(u.id)
	if err != nil {
		return ""
	}
	return localpart
}

// Server returns the server portion of the user ID (after the first
// ':'). Returns "" for the zero value.
func (u UserID) Server() string {
	_, server, err := parseMatrixID(u.id)
	if err != nil {
		return ""
	}
	return server
}

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the user
// ID format. An empty input produces the zero value.
func (u *UserID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
