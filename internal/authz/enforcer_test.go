// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package authz

import (
	"net/http"
	"testing"

	"github.com/bankgate/bankgate/internal/auth"
)

func defaultEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(DefaultTable(), DefaultHierarchy())
	if err != nil {
		t.Fatalf("NewEnforcer() error: %v", err)
	}
	return e
}

func principalWith(authorities ...string) *auth.Principal {
	return &auth.Principal{ID: "test", Authorities: authorities}
}

func TestDecideDefaultTable(t *testing.T) {
	e := defaultEnforcer(t)

	user := principalWith(AuthorityUser)
	admin := principalWith(AuthorityAdmin)
	auditor := principalWith("AUDITOR")

	tests := []struct {
		name      string
		principal *auth.Principal
		path      string
		method    string
		want      Effect
	}{
		{"anonymous public notices", nil, "/notices", http.MethodGet, EffectAllow},
		{"anonymous public contact", nil, "/contact", http.MethodPost, EffectAllow},
		{"anonymous register", nil, "/register", http.MethodPost, EffectAllow},
		{"anonymous protected route", nil, "/myAccount", http.MethodGet, EffectDenyNotAuthenticated},
		{"anonymous authenticated route", nil, "/user", http.MethodGet, EffectDenyNotAuthenticated},
		{"user account", user, "/myAccount", http.MethodGet, EffectAllow},
		{"user balance", user, "/myBalance", http.MethodGet, EffectAllow},
		{"admin balance via any-of", admin, "/myBalance", http.MethodGet, EffectAllow},
		{"admin alone lacks user authority", admin, "/myAccount", http.MethodGet, EffectDenyForbidden},
		{"auditor lacks authority", auditor, "/myAccount", http.MethodGet, EffectDenyForbidden},
		{"auditor is authenticated", auditor, "/user", http.MethodGet, EffectAllow},
		{"unmatched route anonymous", nil, "/internal/debug", http.MethodGet, EffectDenyNotAuthenticated},
		{"unmatched route authenticated", admin, "/internal/debug", http.MethodGet, EffectDenyForbidden},
		{"method-scoped public", nil, "/notices", http.MethodPost, EffectDenyNotAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Decide(tt.principal, tt.path, tt.method)
			if err != nil {
				t.Fatalf("Decide() error: %v", err)
			}
			if d.Effect != tt.want {
				t.Errorf("Decide(%s %s) = %v, want %v", tt.method, tt.path, d.Effect, tt.want)
			}
		})
	}
}

func TestDecideFirstMatchWins(t *testing.T) {
	table := Table{
		{Pattern: "/reports/public", Require: Public()},
		{Pattern: "/reports/:id", Require: AnyAuthority("AUDITOR")},
	}
	e, err := NewEnforcer(table, nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error: %v", err)
	}

	d, err := e.Decide(nil, "/reports/public", http.MethodGet)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if d.Effect != EffectAllow {
		t.Errorf("earlier public rule lost to later pattern: %v", d.Effect)
	}

	d, err = e.Decide(nil, "/reports/42", http.MethodGet)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if d.Effect != EffectDenyNotAuthenticated {
		t.Errorf("Decide(/reports/42) = %v, want deny", d.Effect)
	}
}

func TestDecideCustomHierarchy(t *testing.T) {
	table := Table{
		{Pattern: "/statements", Require: AnyAuthority("USER")},
	}
	hierarchy := map[string][]string{"SUPERVISOR": {"USER"}}
	e, err := NewEnforcer(table, hierarchy)
	if err != nil {
		t.Fatalf("NewEnforcer() error: %v", err)
	}

	d, err := e.Decide(principalWith("SUPERVISOR"), "/statements", http.MethodGet)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if d.Effect != EffectAllow {
		t.Errorf("inherited authority denied: %v", d.Effect)
	}

	d, err = e.Decide(principalWith("INTERN"), "/statements", http.MethodGet)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if d.Effect != EffectDenyForbidden {
		t.Errorf("unrelated authority allowed: %v", d.Effect)
	}
}

func TestDecideAllAuthorities(t *testing.T) {
	table := Table{
		{Pattern: "/treasury", Require: AllAuthorities("USER", "TREASURER")},
	}
	e, err := NewEnforcer(table, nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error: %v", err)
	}

	tests := []struct {
		name      string
		principal *auth.Principal
		want      Effect
	}{
		{"both authorities", principalWith("USER", "TREASURER"), EffectAllow},
		{"one authority", principalWith("USER"), EffectDenyForbidden},
		{"anonymous", nil, EffectDenyNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Decide(tt.principal, "/treasury", http.MethodGet)
			if err != nil {
				t.Fatalf("Decide() error: %v", err)
			}
			if d.Effect != tt.want {
				t.Errorf("Decide() = %v, want %v", d.Effect, tt.want)
			}
		})
	}
}

func TestDecidePatternParameters(t *testing.T) {
	table := Table{
		{Pattern: "/accounts/:id", Require: AnyAuthority("USER")},
	}
	e, err := NewEnforcer(table, nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error: %v", err)
	}

	d, err := e.Decide(principalWith("USER"), "/accounts/1234", http.MethodGet)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if d.Effect != EffectAllow {
		t.Errorf("parameterized pattern did not match: %v", d.Effect)
	}

	// Deeper paths do not match the single segment parameter.
	d, err = e.Decide(principalWith("USER"), "/accounts/1234/transfers", http.MethodGet)
	if err != nil {
		t.Fatalf("Decide() error: %v", err)
	}
	if d.Effect == EffectAllow {
		t.Error("pattern matched a deeper path")
	}
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   Table
		wantErr bool
	}{
		{"valid", DefaultTable(), false},
		{"empty pattern", Table{{Pattern: "", Require: Public()}}, true},
		{"any-of without authorities", Table{{Pattern: "/x", Require: Requirement{Kind: RequireAnyAuthority}}}, true},
		{"all-of without authorities", Table{{Pattern: "/x", Require: Requirement{Kind: RequireAllAuthorities}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
