// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package auth

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bankgate/bankgate/internal/audit"
	"github.com/bankgate/bankgate/internal/logging"
	"github.com/bankgate/bankgate/internal/token"
)

// FailureHandler writes the 401 response when presented credentials fail.
// message is a generic client-safe string; internal reasons stay in logs
// and audit.
type FailureHandler func(w http.ResponseWriter, r *http.Request, message string)

// ThrottleHandler writes the response for rate-limited login attempts.
type ThrottleHandler func(w http.ResponseWriter, r *http.Request)

// Middleware authenticates requests. Requests without credentials pass
// through anonymously; the route policy gate decides whether anonymous
// access suffices. Requests with bad credentials stop here with 401.
type Middleware struct {
	provider   Provider
	validator  *token.Validator
	extractor  *Extractor
	limiter    *RateLimiter
	audit      *audit.Logger
	secLog     *logging.SecurityLogger
	onFailure  FailureHandler
	onThrottle ThrottleHandler
}

// NewMiddleware wires the authentication stage. limiter may be nil to
// disable login throttling.
func NewMiddleware(
	provider Provider,
	validator *token.Validator,
	extractor *Extractor,
	limiter *RateLimiter,
	auditLog *audit.Logger,
	onFailure FailureHandler,
	onThrottle ThrottleHandler,
) *Middleware {
	return &Middleware{
		provider:   provider,
		validator:  validator,
		extractor:  extractor,
		limiter:    limiter,
		audit:      auditLog,
		secLog:     logging.NewSecurityLogger(),
		onFailure:  onFailure,
		onThrottle: onThrottle,
	}
}

// Handler is the middleware entry point.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := m.extractor.Extract(r)
		if creds == nil {
			next.ServeHTTP(w, r)
			return
		}

		switch creds.Carrier {
		case CarrierBearer:
			m.handleBearer(w, r, next, creds)
		default:
			m.handleSecret(w, r, next, creds)
		}
	})
}

// handleBearer authenticates a bearer token. Validation is cryptographic
// only; the credential store is not consulted.
func (m *Middleware) handleBearer(w http.ResponseWriter, r *http.Request, next http.Handler, creds *Credentials) {
	claims, err := m.validator.Validate(creds.Token)
	if err != nil {
		TokenValidationFailures.WithLabelValues(tokenFailureLabel(err)).Inc()
		m.recordFailure(r, creds, string(ReasonBadToken)+": "+tokenFailureLabel(err))
		m.onFailure(w, r, "Unauthorized")
		return
	}

	principal := &Principal{
		ID:          claims.Username,
		Authorities: claims.AuthorityList(),
	}
	m.admit(w, r, next, creds, principal)
}

// handleSecret authenticates basic or form credentials via the provider.
func (m *Middleware) handleSecret(w http.ResponseWriter, r *http.Request, next http.Handler, creds *Credentials) {
	ip := clientIP(r)
	if !m.limiter.Allow(ip) {
		LoginThrottled.Inc()
		m.secLog.LogEvent(&logging.SecurityEvent{
			Event:       "login_throttled",
			PrincipalID: creds.PrincipalID,
			Carrier:     creds.Carrier,
			IPAddress:   ip,
			Path:        r.URL.Path,
		})
		m.onThrottle(w, r)
		return
	}

	start := time.Now()
	result := m.provider.Authenticate(r.Context(), creds.PrincipalID, creds.Secret)
	AuthDuration.WithLabelValues(creds.Carrier).Observe(time.Since(start).Seconds())

	if !result.Success() {
		m.recordFailure(r, creds, string(result.Reason))
		m.onFailure(w, r, "Unauthorized")
		return
	}

	m.admit(w, r, next, creds, result.Principal)
}

// admit populates the security context and hands off to the next stage.
func (m *Middleware) admit(w http.ResponseWriter, r *http.Request, next http.Handler, creds *Credentials, p *Principal) {
	AuthAttempts.WithLabelValues(creds.Carrier, "success").Inc()

	m.secLog.LogEvent(&logging.SecurityEvent{
		Event:       "login_success",
		PrincipalID: p.ID,
		Carrier:     creds.Carrier,
		IPAddress:   clientIP(r),
		Path:        r.URL.Path,
		Success:     true,
	})
	m.audit.RecordSuccess(
		audit.Actor{ID: p.ID, Type: "user", Authorities: p.Authorities, Carrier: creds.Carrier},
		audit.SourceFromRequest(r),
		logging.RequestIDFromContext(r.Context()),
	)

	ctx := WithPrincipal(r.Context(), p)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (m *Middleware) recordFailure(r *http.Request, creds *Credentials, reason string) {
	AuthAttempts.WithLabelValues(creds.Carrier, "failure").Inc()

	m.secLog.LogEvent(&logging.SecurityEvent{
		Event:       "login_failure",
		PrincipalID: creds.PrincipalID,
		Carrier:     creds.Carrier,
		IPAddress:   clientIP(r),
		Path:        r.URL.Path,
		Reason:      reason,
	})
	m.audit.RecordFailure(
		creds.PrincipalID,
		creds.Carrier,
		audit.SourceFromRequest(r),
		reason,
		logging.RequestIDFromContext(r.Context()),
	)
}

// tokenFailureLabel maps token validation errors to metric labels.
func tokenFailureLabel(err error) string {
	switch {
	case errors.Is(err, token.ErrTokenExpired):
		return "expired"
	case errors.Is(err, token.ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, token.ErrUnknownKeyID):
		return "unknown_kid"
	default:
		return "malformed"
	}
}

// clientIP strips the port from the remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
