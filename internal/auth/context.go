// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package auth

import (
	"context"
)

type contextKey string

// principalKey carries the authenticated principal for one request.
const principalKey contextKey = "principal"

// WithPrincipal returns a context carrying the principal. The security
// context is populated once per request, by the authentication middleware,
// after verification succeeds.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the request's principal, or nil when the request is
// unauthenticated. Callers must not mutate the returned principal.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// Detach returns a context for background work spawned from a request.
// It survives the request's cancellation and deliberately carries no
// principal; identity does not follow work across goroutine boundaries
// unless DetachWithPrincipal is chosen.
func Detach(parent context.Context) context.Context {
	ctx := context.WithoutCancel(parent)
	return context.WithValue(ctx, principalKey, (*Principal)(nil))
}

// DetachWithPrincipal is the opt-in variant of Detach that copies the
// parent's principal into the detached context.
func DetachWithPrincipal(parent context.Context) context.Context {
	ctx := context.WithoutCancel(parent)
	if p := FromContext(parent); p != nil {
		return context.WithValue(ctx, principalKey, p)
	}
	return context.WithValue(ctx, principalKey, (*Principal)(nil))
}
