// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package api is the HTTP surface of the pipeline: the uniform 401/403
// failure writers, the sample banking handlers that exercise each stage,
// and the router that fixes the middleware order.
package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/bankgate/bankgate/internal/logging"
)

// ErrorReasonHeader carries a short machine-readable failure label so
// clients can distinguish failure categories without parsing the body.
const ErrorReasonHeader = "Bankgate-Error-Reason"

// failureResponse is the uniform body for 401 and 403 responses.
type failureResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, errLabel, reason, message string) {
	w.Header().Set(ErrorReasonHeader, reason)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := failureResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     errLabel,
		Message:   message,
		Path:      r.URL.Path,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode failure response")
	}
}

// WriteAuthenticationFailure is the 401 entry point. message must already
// be client-safe; internal failure reasons never reach this function.
// Missing, unknown, and wrong credentials all land here with the same
// generic message.
func WriteAuthenticationFailure(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	writeFailure(w, r, http.StatusUnauthorized, "Unauthorized", "authentication_failed", message)
}

// WriteAccessDenied is the 403 handler for authenticated callers the
// policy rejects. It is distinct from the 401 entry point so the two
// denial classes stay separately evolvable.
func WriteAccessDenied(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Access Denied"
	}
	writeFailure(w, r, http.StatusForbidden, "Forbidden", "access_denied", message)
}

// WriteCSRFRejected is the 403 handler for failed anti-forgery checks.
func WriteCSRFRejected(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Access Denied"
	}
	writeFailure(w, r, http.StatusForbidden, "Forbidden", "csrf_rejected", message)
}

// WriteTooManyRequests is the 429 handler for throttled attempts.
func WriteTooManyRequests(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, r, http.StatusTooManyRequests, "Too Many Requests", "rate_limited", "Too many requests")
}
