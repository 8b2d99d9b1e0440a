// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package csrf

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/bankgate/bankgate/internal/audit"
	"github.com/bankgate/bankgate/internal/config"
	"github.com/bankgate/bankgate/internal/logging"
)

// RejectHandler writes the 403 response for a failed anti-forgery check.
// The check runs before authentication, so rejection is 403 regardless of
// who the caller might have been.
type RejectHandler func(w http.ResponseWriter, r *http.Request, message string)

// Guard is the double-submit CSRF middleware.
type Guard struct {
	cfg      config.CSRFConfig
	codec    *securecookie.SecureCookie
	store    *tokenStore
	audit    *audit.Logger
	onReject RejectHandler
}

// NewGuard builds the guard from configuration.
func NewGuard(cfg config.CSRFConfig, auditLog *audit.Logger, onReject RejectHandler) *Guard {
	codec := securecookie.New([]byte(cfg.HashKey), nil)
	codec.MaxAge(int(cfg.TokenTTL.Seconds()))

	return &Guard{
		cfg:      cfg,
		codec:    codec,
		store:    newTokenStore(cfg.TokenTTL),
		audit:    auditLog,
		onReject: onReject,
	}
}

// Close stops the token sweeper.
func (g *Guard) Close() {
	g.store.stop()
}

// safeMethods never mutate state and are exempt from validation.
var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// Handler validates mutating requests and lazily issues tokens on safe
// ones. Exemptions are the safe methods plus the configured literal paths.
func (g *Guard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if safeMethods[r.Method] {
			g.ensureToken(w, r)
			next.ServeHTTP(w, r)
			return
		}
		if g.exemptPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if reason, ok := g.check(r); !ok {
			g.reject(w, r, reason)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ensureToken issues a token into the cookie when the request carries none
// that is still valid.
func (g *Guard) ensureToken(w http.ResponseWriter, r *http.Request) {
	if token, ok := g.cookieToken(r); ok && g.store.valid(token) {
		return
	}

	token, err := g.store.issue()
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to issue anti-forgery token")
		return
	}
	encoded, err := g.codec.Encode(g.cfg.CookieName, token)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode anti-forgery cookie")
		return
	}

	// HttpOnly stays off: the client script must read the token to echo it.
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    encoded,
		Path:     "/",
		Secure:   g.cfg.CookieSecure,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(g.cfg.TokenTTL.Seconds()),
	})
}

// check validates the double-submit pair on a mutating request.
func (g *Guard) check(r *http.Request) (reason string, ok bool) {
	cookieToken, ok := g.cookieToken(r)
	if !ok {
		return "missing_cookie", false
	}
	if !g.store.valid(cookieToken) {
		return "expired_token", false
	}

	echo := g.echoedToken(r)
	if echo == "" {
		return "missing_echo", false
	}
	if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(echo)) != 1 {
		return "token_mismatch", false
	}
	return "", true
}

// cookieToken decodes the HMAC-wrapped cookie value.
func (g *Guard) cookieToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(g.cfg.CookieName)
	if err != nil {
		return "", false
	}
	var token string
	if err := g.codec.Decode(g.cfg.CookieName, cookie.Value, &token); err != nil {
		return "", false
	}
	return token, true
}

// echoedToken reads the client's echo: header first, then the form field.
func (g *Guard) echoedToken(r *http.Request) string {
	if v := r.Header.Get(g.cfg.HeaderName); v != "" {
		return v
	}
	if g.cfg.FormFieldName != "" {
		return r.PostFormValue(g.cfg.FormFieldName)
	}
	return ""
}

func (g *Guard) exemptPath(path string) bool {
	for _, p := range g.cfg.ExemptPaths {
		if p == path {
			return true
		}
	}
	return false
}

// Invalidate retires the request's token and expires the cookie.
func (g *Guard) Invalidate(w http.ResponseWriter, r *http.Request) {
	if token, ok := g.cookieToken(r); ok {
		g.store.invalidate(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Secure:   g.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (g *Guard) reject(w http.ResponseWriter, r *http.Request, reason string) {
	Rejections.WithLabelValues(reason).Inc()

	logging.Ctx(r.Context()).Warn().
		Str("reason", reason).
		Str("path", r.URL.Path).
		Str("method", r.Method).
		Msg("Request rejected by anti-forgery guard")

	g.audit.RecordCSRFRejected(
		audit.SourceFromRequest(r),
		reason,
		logging.RequestIDFromContext(r.Context()),
	)
	g.onReject(w, r, "Access Denied")
}
