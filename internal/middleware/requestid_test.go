// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bankgate/bankgate/internal/logging"
)

func TestRequestIDGenerated(t *testing.T) {
	var seenCtx, seenLogging string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtx = GetRequestID(r.Context())
		seenLogging = logging.RequestIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/notices", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	header := w.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("no X-Request-ID response header")
	}
	if seenCtx != header || seenLogging != header {
		t.Errorf("context IDs (%q, %q) != header %q", seenCtx, seenLogging, header)
	}
}

func TestRequestIDPreservesUpstream(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	r := httptest.NewRequest(http.MethodGet, "/notices", nil)
	r.Header.Set("X-Request-ID", "upstream-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if got := w.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want upstream-id", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/notices", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	}
	for name, value := range want {
		if got := w.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
}
