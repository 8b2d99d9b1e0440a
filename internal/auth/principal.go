// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package auth establishes caller identity for each request. It resolves
// credentials from the supported carriers (Basic header, form fields,
// bearer token), verifies them through the configured provider, and places
// the resulting principal in the request-scoped security context.
package auth

// Principal is an authenticated caller.
type Principal struct {
	// ID is the stable principal identifier.
	ID string `json:"id"`

	// Authorities are the granted authority names. Roles are authorities;
	// there is no separate prefix convention.
	Authorities []string `json:"authorities"`
}

// HasAuthority reports whether the principal holds the named authority.
func (p *Principal) HasAuthority(name string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == name {
			return true
		}
	}
	return false
}

// HasAnyAuthority reports whether the principal holds at least one of the
// named authorities.
func (p *Principal) HasAnyAuthority(names ...string) bool {
	for _, n := range names {
		if p.HasAuthority(n) {
			return true
		}
	}
	return false
}

// HasAllAuthorities reports whether the principal holds every named
// authority. An empty list is vacuously true.
func (p *Principal) HasAllAuthorities(names ...string) bool {
	if p == nil {
		return len(names) == 0
	}
	for _, n := range names {
		if !p.HasAuthority(n) {
			return false
		}
	}
	return true
}
