// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package authz

import (
	"github.com/bankgate/bankgate/internal/auth"
)

// Owned is implemented by domain results carrying an owner. Post-invocation
// checks compare the owner against the caller.
type Owned interface {
	OwnerID() string
}

// PostDecide runs after a handler has produced a result: the caller may see
// item only if they own it or hold the bypass authority. It exists for
// single-result endpoints; list endpoints use FilterOwned.
func PostDecide(principal *auth.Principal, item Owned) Effect {
	if principal == nil {
		return EffectDenyNotAuthenticated
	}
	if principal.HasAuthority(AuthorityAdmin) {
		return EffectAllow
	}
	if item.OwnerID() == principal.ID {
		return EffectAllow
	}
	return EffectDenyForbidden
}

// FilterOwned drops items the principal does not own. Holders of the bypass
// authority see everything; anonymous callers see nothing. The input slice
// is not modified.
func FilterOwned[T Owned](principal *auth.Principal, items []T) []T {
	if principal == nil {
		return nil
	}
	if principal.HasAuthority(AuthorityAdmin) {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}

	var out []T
	for _, item := range items {
		if item.OwnerID() == principal.ID {
			out = append(out, item)
		}
	}
	return out
}
