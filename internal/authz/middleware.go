// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package authz

import (
	"net/http"

	"github.com/bankgate/bankgate/internal/audit"
	"github.com/bankgate/bankgate/internal/auth"
	"github.com/bankgate/bankgate/internal/logging"
)

// DenyHandler writes a denial response.
type DenyHandler func(w http.ResponseWriter, r *http.Request, message string)

// Middleware is the pre-invocation policy gate. It runs after
// authentication: the security context is already populated (or not), and
// the decision turns on path, method, and the principal's authorities.
type Middleware struct {
	enforcer           *Enforcer
	audit              *audit.Logger
	onNotAuthenticated DenyHandler
	onForbidden        DenyHandler
}

// NewMiddleware wires the policy gate.
func NewMiddleware(enforcer *Enforcer, auditLog *audit.Logger, onNotAuthenticated, onForbidden DenyHandler) *Middleware {
	return &Middleware{
		enforcer:           enforcer,
		audit:              auditLog,
		onNotAuthenticated: onNotAuthenticated,
		onForbidden:        onForbidden,
	}
}

// Handler enforces the route policy table.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := auth.FromContext(r.Context())

		decision, err := m.enforcer.Decide(principal, r.URL.Path, r.Method)
		if err != nil {
			// An evaluation fault denies; access never defaults open.
			logging.Ctx(r.Context()).Error().Err(err).
				Str("path", r.URL.Path).
				Msg("Policy evaluation failed")
			decision = deny(principal, nil)
		}

		Decisions.WithLabelValues(decision.Effect.String()).Inc()

		switch decision.Effect {
		case EffectAllow:
			next.ServeHTTP(w, r)

		case EffectDenyNotAuthenticated:
			m.onNotAuthenticated(w, r, "Unauthorized")

		case EffectDenyForbidden:
			m.recordDenied(r, principal)
			m.onForbidden(w, r, "Access Denied")

		default:
			m.recordDenied(r, principal)
			m.onForbidden(w, r, "Access Denied")
		}
	})
}

func (m *Middleware) recordDenied(r *http.Request, principal *auth.Principal) {
	actor := audit.Actor{Type: "user"}
	if principal != nil {
		actor.ID = principal.ID
		actor.Authorities = principal.Authorities
	}

	logging.Ctx(r.Context()).Warn().
		Str("principal", logging.SanitizePrincipalID(actor.ID)).
		Str("path", r.URL.Path).
		Str("method", r.Method).
		Msg("Access denied by route policy")

	m.audit.RecordAuthorizationDenied(
		actor,
		audit.SourceFromRequest(r),
		logging.RequestIDFromContext(r.Context()),
	)
}
