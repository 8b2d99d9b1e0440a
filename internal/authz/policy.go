// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package authz decides whether an authenticated (or anonymous) caller may
// invoke a route. Policy is an ordered table: first match wins, and a
// request matching no rule is denied. Public routes are an explicit list,
// never a fallback.
package authz

import (
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2/util"
)

// RequireKind classifies what a route demands of the caller.
type RequireKind int

const (
	// RequirePublic admits everyone, authenticated or not.
	RequirePublic RequireKind = iota

	// RequireAuthenticated admits any authenticated principal.
	RequireAuthenticated

	// RequireAnyAuthority admits principals holding at least one of the
	// listed authorities.
	RequireAnyAuthority

	// RequireAllAuthorities admits principals holding every listed
	// authority.
	RequireAllAuthorities
)

// Requirement is a route's access demand.
type Requirement struct {
	Kind        RequireKind
	Authorities []string
}

// Public admits all callers.
func Public() Requirement {
	return Requirement{Kind: RequirePublic}
}

// Authenticated admits any authenticated principal.
func Authenticated() Requirement {
	return Requirement{Kind: RequireAuthenticated}
}

// AnyAuthority admits principals holding at least one listed authority.
func AnyAuthority(names ...string) Requirement {
	return Requirement{Kind: RequireAnyAuthority, Authorities: names}
}

// AllAuthorities admits principals holding every listed authority.
func AllAuthorities(names ...string) Requirement {
	return Requirement{Kind: RequireAllAuthorities, Authorities: names}
}

// RoutePolicy binds a path pattern (keyMatch2 syntax, e.g. /accounts/:id)
// and optional method list to a requirement. Empty Methods means all
// methods.
type RoutePolicy struct {
	Pattern string
	Methods []string
	Require Requirement
}

func (p *RoutePolicy) matchesMethod(method string) bool {
	if len(p.Methods) == 0 {
		return true
	}
	for _, m := range p.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Table is an ordered route policy list.
type Table []RoutePolicy

// Match returns the first policy covering path and method.
func (t Table) Match(path, method string) (*RoutePolicy, bool) {
	for i := range t {
		p := &t[i]
		if p.matchesMethod(method) && util.KeyMatch2(path, p.Pattern) {
			return p, true
		}
	}
	return nil, false
}

// Validate rejects tables with empty patterns or authority requirements
// without authorities.
func (t Table) Validate() error {
	for i := range t {
		p := &t[i]
		if p.Pattern == "" {
			return fmt.Errorf("policy %d has an empty pattern", i)
		}
		switch p.Require.Kind {
		case RequireAnyAuthority, RequireAllAuthorities:
			if len(p.Require.Authorities) == 0 {
				return fmt.Errorf("policy %d (%s) requires authorities but lists none", i, p.Pattern)
			}
		case RequirePublic, RequireAuthenticated:
		default:
			return fmt.Errorf("policy %d (%s) has unknown requirement kind %d", i, p.Pattern, p.Require.Kind)
		}
	}
	return nil
}

// Banking authority names used by the default table.
const (
	AuthorityUser  = "USER"
	AuthorityAdmin = "ADMIN"
)

// DefaultTable is the banking route policy: account views need USER,
// balance also admits ADMIN, profile needs any authenticated principal, and
// the public endpoints are listed explicitly.
func DefaultTable() Table {
	return Table{
		{Pattern: "/myAccount", Require: AnyAuthority(AuthorityUser)},
		{Pattern: "/myBalance", Require: AnyAuthority(AuthorityUser, AuthorityAdmin)},
		{Pattern: "/myLoans", Require: AnyAuthority(AuthorityUser)},
		{Pattern: "/myCards", Require: AnyAuthority(AuthorityUser)},
		{Pattern: "/user", Require: Authenticated()},
		{Pattern: "/logout", Methods: []string{http.MethodPost}, Require: Authenticated()},
		{Pattern: "/notices", Methods: []string{http.MethodGet}, Require: Public()},
		{Pattern: "/contact", Require: Public()},
		{Pattern: "/register", Methods: []string{http.MethodPost}, Require: Public()},
		{Pattern: "/error", Require: Public()},
		{Pattern: "/metrics", Require: Public()},
		{Pattern: "/healthz", Require: Public()},
	}
}
