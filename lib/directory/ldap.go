// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Defaults for LDAPConfig fields left empty.
const (
	DefaultGroupFilter     = "(&(objectClass=posixGroup)(cn=%s))"
	DefaultMemberAttribute = "memberUid"
)

// LDAPConfig configures an LDAP directory.
type LDAPConfig struct {
	// URL is the server URL (ldap://, ldaps:// or ldapi://).
	URL string

	// BindDN and BindPassword authenticate the search. An empty BindDN
	// searches anonymously.
	BindDN       string
	BindPassword string

	// BaseDN is the search base for group entries.
	BaseDN string

	// GroupFilter is a filter with one %s verb for the (escaped) group
	// name. Defaults to DefaultGroupFilter.
	GroupFilter string

	// MemberAttribute holds the members of a group entry. Values may be
	// bare uids or DNs; for DNs the value of the first RDN is used.
	// Defaults to DefaultMemberAttribute.
	MemberAttribute string

	// Groups lists the groups this bot exposes. Only these are looked
	// up.
	Groups []string

	// Timeout bounds each request. Zero means 10 seconds.
	Timeout time.Duration

	Logger *slog.Logger
}

// conn is the subset of *ldap.Conn used here.
type conn interface {
	Bind(username, password string) error
	Search(request *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// LDAP serves groups from a directory server. A fresh connection is
// opened per call; group lookups happen once per command at most.
type LDAP struct {
	config LDAPConfig
	logger *slog.Logger
	dial   func(url string) (conn, error)
}

// NewLDAP creates an LDAP directory.
func NewLDAP(config LDAPConfig) *LDAP {
	if config.GroupFilter == "" {
		config.GroupFilter = DefaultGroupFilter
	}
	if config.MemberAttribute == "" {
		config.MemberAttribute = DefaultMemberAttribute
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	directory := &LDAP{config: config, logger: logger.With("component", "ldap")}
	directory.dial = func(url string) (conn, error) {
		connection, err := ldap.DialURL(url)
		if err != nil {
			return nil, err
		}
		connection.SetTimeout(directory.config.Timeout)
		return connection, nil
	}
	return directory
}

// Groups returns the configured group names.
func (d *LDAP) Groups(ctx context.Context) ([]string, error) {
	return append([]string(nil), d.config.Groups...), nil
}

// GroupMembers searches every configured group. Groups with no entry
// in the directory are omitted from the result.
func (d *LDAP) GroupMembers(ctx context.Context) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	connection, err := d.dial(d.config.URL)
	if err != nil {
		return nil, fmt.Errorf("ldap: connecting to %s: %w", d.config.URL, err)
	}
	defer connection.Close()

	if d.config.BindDN != "" {
		if err := connection.Bind(d.config.BindDN, d.config.BindPassword); err != nil {
			return nil, fmt.Errorf("ldap: bind as %s: %w", d.config.BindDN, err)
		}
	}

	groups := make(map[string][]string, len(d.config.Groups))
	for _, name := range d.config.Groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		request := ldap.NewSearchRequest(
			d.config.BaseDN,
			ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
			0, int(d.config.Timeout/time.Second), false,
			fmt.Sprintf(d.config.GroupFilter, ldap.EscapeFilter(name)),
			[]string{d.config.MemberAttribute},
			nil,
		)
		result, err := connection.Search(request)
		if err != nil {
			return nil, fmt.Errorf("ldap: searching group %q: %w", name, err)
		}
		if len(result.Entries) == 0 {
			d.logger.Debug("group not found in directory", "group", name)
			continue
		}

		var members []string
		for _, entry := range result.Entries {
			for _, value := range entry.GetAttributeValues(d.config.MemberAttribute) {
				if member := memberName(value); member != "" {
					members = append(members, member)
				}
			}
		}
		groups[name] = members
	}
	return groups, nil
}

// memberName turns a member attribute value into an identity. DN
// values ("uid=alice,ou=people,dc=example,dc=org") yield the first
// RDN's value; anything else is used as-is.
func memberName(value string) string {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "=") {
		return value
	}
	dn, err := ldap.ParseDN(value)
	if err != nil || len(dn.RDNs) == 0 || len(dn.RDNs[0].Attributes) == 0 {
		return value
	}
	return dn.RDNs[0].Attributes[0].Value
}
