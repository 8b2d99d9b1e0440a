// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package csrf

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bankgate/bankgate/internal/audit"
	"github.com/bankgate/bankgate/internal/config"
)

func testGuard(t *testing.T, mutate func(*config.CSRFConfig)) *Guard {
	t.Helper()

	cfg := config.CSRFConfig{
		CookieName:    "XSRF-TOKEN",
		HeaderName:    "X-XSRF-TOKEN",
		FormFieldName: "_csrf",
		TokenTTL:      time.Hour,
		HashKey:       "fedcba9876543210fedcba9876543210",
		ExemptPaths:   []string{"/contact", "/register"},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	auditLog := audit.NewLogger(audit.NewMemoryStore(100), 100)
	t.Cleanup(func() { _ = auditLog.Close() })

	g := NewGuard(cfg, auditLog, func(w http.ResponseWriter, r *http.Request, message string) {
		http.Error(w, message, http.StatusForbidden)
	})
	t.Cleanup(g.Close)
	return g
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

// obtainToken performs a safe request and returns the issued cookie plus
// the decoded token value.
func obtainToken(t *testing.T, g *Guard, handler http.Handler) (*http.Cookie, string) {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, "/notices", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	cookie := cookies[0]

	var token string
	if err := g.codec.Decode(g.cfg.CookieName, cookie.Value, &token); err != nil {
		t.Fatalf("decoding issued cookie: %v", err)
	}
	return cookie, token
}

func TestGuardLazyIssuance(t *testing.T) {
	g := testGuard(t, nil)
	handler := g.Handler(okHandler())

	cookie, token := obtainToken(t, g, handler)
	if cookie.Name != "XSRF-TOKEN" {
		t.Errorf("cookie name = %q", cookie.Name)
	}
	if cookie.HttpOnly {
		t.Error("cookie is HttpOnly; the client must be able to read it")
	}
	if token == "" {
		t.Error("empty token issued")
	}

	// A request presenting a valid token gets no new cookie.
	r := httptest.NewRequest(http.MethodGet, "/notices", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if len(w.Result().Cookies()) != 0 {
		t.Error("re-issued a token to a request already holding one")
	}
}

func TestGuardMutatingRequests(t *testing.T) {
	g := testGuard(t, nil)
	handler := g.Handler(okHandler())
	cookie, token := obtainToken(t, g, handler)

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
	}{
		{
			name: "header echo accepted",
			setup: func(r *http.Request) {
				r.AddCookie(cookie)
				r.Header.Set("X-XSRF-TOKEN", token)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing everything",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "cookie without echo",
			setup: func(r *http.Request) {
				r.AddCookie(cookie)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "echo without cookie",
			setup: func(r *http.Request) {
				r.Header.Set("X-XSRF-TOKEN", token)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "mismatched echo",
			setup: func(r *http.Request) {
				r.AddCookie(cookie)
				r.Header.Set("X-XSRF-TOKEN", "0000000000000000")
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "forged cookie value",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "forged"})
				r.Header.Set("X-XSRF-TOKEN", "forged")
			},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/myAccount", nil)
			tt.setup(r)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestGuardFormFieldEcho(t *testing.T) {
	g := testGuard(t, nil)
	handler := g.Handler(okHandler())
	cookie, token := obtainToken(t, g, handler)

	form := url.Values{"_csrf": {token}, "amount": {"100"}}
	r := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestGuardExemptions(t *testing.T) {
	g := testGuard(t, nil)
	handler := g.Handler(okHandler())

	t.Run("safe methods skip validation", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
			r := httptest.NewRequest(method, "/myAccount", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != http.StatusOK {
				t.Errorf("%s status = %d, want 200", method, w.Code)
			}
		}
	})

	t.Run("exempt path skips validation", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/contact", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("non-exempt path still validated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/contactform", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}

func TestGuardInvalidate(t *testing.T) {
	g := testGuard(t, nil)
	handler := g.Handler(okHandler())
	cookie, token := obtainToken(t, g, handler)

	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()
	g.Invalidate(w, r)

	expired := w.Result().Cookies()
	if len(expired) != 1 || expired[0].MaxAge != -1 {
		t.Error("Invalidate did not expire the cookie")
	}

	// The retired token no longer passes validation.
	r = httptest.NewRequest(http.MethodPost, "/myAccount", nil)
	r.AddCookie(cookie)
	r.Header.Set("X-XSRF-TOKEN", token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 after invalidation", w.Code)
	}
}
