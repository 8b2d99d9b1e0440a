// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bankgate/bankgate/internal/auth"
	"github.com/bankgate/bankgate/internal/authz"
	"github.com/bankgate/bankgate/internal/config"
	"github.com/bankgate/bankgate/internal/csrf"
	"github.com/bankgate/bankgate/internal/middleware"
)

// NewRouter assembles the pipeline. Stage order is fixed: request ID,
// security headers, CORS, throughput limit, anti-forgery guard,
// authentication, route policy gate, handler. The CSRF guard runs before
// authentication so a forged mutating request is rejected without spending
// a credential verification on it.
func NewRouter(
	serverCfg *config.ServerConfig,
	tokenRequestHeader string,
	csrfGuard *csrf.Guard,
	authn *auth.Middleware,
	gate *authz.Middleware,
	h *Handlers,
) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	r.Use(corsMiddleware(serverCfg, tokenRequestHeader))
	r.Use(rateLimitMiddleware(serverCfg))
	r.Use(csrfGuard.Handler)
	r.Use(authn.Handler)
	r.Use(gate.Handler)

	// Public routes.
	r.Get("/notices", h.GetNotices)
	r.Post("/contact", h.PostContact)
	r.Post("/register", h.PostRegister)
	r.Get("/error", h.GetError)
	r.Get("/healthz", h.GetHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated routes; the gate has already enforced the policy.
	r.Get("/user", h.GetUser)
	r.Post("/logout", h.PostLogout)
	r.Get("/myAccount", h.GetAccount)
	r.Get("/myBalance", h.GetBalance)
	r.Get("/myLoans", h.GetLoans)
	r.Get("/myCards", h.GetCards)

	return r
}
