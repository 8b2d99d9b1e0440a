// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bankgate/bankgate/internal/audit"
	"github.com/bankgate/bankgate/internal/auth"
)

func gateHandler(t *testing.T) (http.Handler, *audit.MemoryStore, *audit.Logger) {
	t.Helper()

	store := audit.NewMemoryStore(100)
	auditLog := audit.NewLogger(store, 100)
	t.Cleanup(func() { _ = auditLog.Close() })

	deny := func(status int) DenyHandler {
		return func(w http.ResponseWriter, r *http.Request, message string) {
			http.Error(w, message, status)
		}
	}

	m := NewMiddleware(defaultEnforcer(t), auditLog, deny(http.StatusUnauthorized), deny(http.StatusForbidden))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return m.Handler(next), store, auditLog
}

func TestMiddlewareGate(t *testing.T) {
	handler, _, _ := gateHandler(t)

	tests := []struct {
		name       string
		principal  *auth.Principal
		path       string
		wantStatus int
	}{
		{"anonymous public", nil, "/notices", http.StatusOK},
		{"anonymous protected", nil, "/myAccount", http.StatusUnauthorized},
		{"user allowed", principalWith(AuthorityUser), "/myAccount", http.StatusOK},
		{"wrong authority", principalWith("AUDITOR"), "/myAccount", http.StatusForbidden},
		{"unmatched default deny", principalWith(AuthorityUser), "/internal/debug", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.principal != nil {
				r = r.WithContext(auth.WithPrincipal(r.Context(), tt.principal))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestMiddlewareAuditsForbidden(t *testing.T) {
	handler, store, auditLog := gateHandler(t)

	r := httptest.NewRequest(http.MethodGet, "/myAccount", nil)
	r = r.WithContext(auth.WithPrincipal(r.Context(), principalWith("AUDITOR")))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	// Drain the async writer before querying.
	if err := auditLog.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	events, err := store.Query(context.Background(), audit.QueryFilter{
		Types: []audit.EventType{audit.EventTypeAuthzDenied},
	})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d authz.denied events, want 1", len(events))
	}
	if events[0].Actor.ID != "test" {
		t.Errorf("Actor.ID = %q, want test", events[0].Actor.ID)
	}
}
