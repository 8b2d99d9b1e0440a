// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package auth

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestExtractorCarrierOrder(t *testing.T) {
	e := NewExtractor("Authorization", "username", "password")

	t.Run("no credentials", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/myAccount", nil)
		if got := e.Extract(r); got != nil {
			t.Errorf("Extract() = %+v, want nil", got)
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/myAccount", nil)
		r.Header.Set("Authorization", "Bearer abc.def.ghi")
		got := e.Extract(r)
		if got == nil || got.Carrier != CarrierBearer || got.Token != "abc.def.ghi" {
			t.Errorf("Extract() = %+v, want bearer abc.def.ghi", got)
		}
	})

	t.Run("basic header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/myAccount", nil)
		r.SetBasicAuth("alice", "s3cret")
		got := e.Extract(r)
		if got == nil || got.Carrier != CarrierBasic || got.PrincipalID != "alice" || got.Secret != "s3cret" {
			t.Errorf("Extract() = %+v, want basic alice/s3cret", got)
		}
	})

	t.Run("form fields", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"s3cret"}}
		r := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		got := e.Extract(r)
		if got == nil || got.Carrier != CarrierForm || got.PrincipalID != "alice" || got.Secret != "s3cret" {
			t.Errorf("Extract() = %+v, want form alice/s3cret", got)
		}
	})

	t.Run("bearer wins over basic", func(t *testing.T) {
		form := url.Values{"username": {"formuser"}, "password": {"x"}}
		r := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.Header.Set("Authorization", "Bearer tok")
		got := e.Extract(r)
		if got == nil || got.Carrier != CarrierBearer {
			t.Errorf("Extract() = %+v, want bearer", got)
		}
	})

	t.Run("basic wins over form", func(t *testing.T) {
		form := url.Values{"username": {"formuser"}, "password": {"x"}}
		r := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.SetBasicAuth("headeruser", "y")
		got := e.Extract(r)
		if got == nil || got.Carrier != CarrierBasic || got.PrincipalID != "headeruser" {
			t.Errorf("Extract() = %+v, want basic headeruser", got)
		}
	})

	t.Run("form requires POST", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/login?username=alice&password=x", nil)
		if got := e.Extract(r); got != nil {
			t.Errorf("Extract() from query string = %+v, want nil", got)
		}
	})
}

func TestExtractorDedicatedTokenHeader(t *testing.T) {
	e := NewExtractor("X-Auth-Token", "username", "password")

	r := httptest.NewRequest("GET", "/myAccount", nil)
	r.Header.Set("X-Auth-Token", "raw-token-value")
	got := e.Extract(r)
	if got == nil || got.Carrier != CarrierBearer || got.Token != "raw-token-value" {
		t.Errorf("Extract() = %+v, want bearer raw-token-value", got)
	}

	// A Basic Authorization header must still reach the basic carrier when
	// the token header is elsewhere.
	r = httptest.NewRequest("GET", "/myAccount", nil)
	r.SetBasicAuth("alice", "s3cret")
	got = e.Extract(r)
	if got == nil || got.Carrier != CarrierBasic {
		t.Errorf("Extract() = %+v, want basic", got)
	}
}

func TestExtractorConfigurableFormFields(t *testing.T) {
	e := NewExtractor("Authorization", "login_id", "passphrase")

	form := url.Values{"login_id": {"alice"}, "passphrase": {"s3cret"}}
	r := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got := e.Extract(r)
	if got == nil || got.PrincipalID != "alice" || got.Secret != "s3cret" {
		t.Errorf("Extract() = %+v, want alice/s3cret from custom fields", got)
	}

	// Default field names no longer match.
	form = url.Values{"username": {"alice"}, "password": {"s3cret"}}
	r = httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if got := e.Extract(r); got != nil {
		t.Errorf("Extract() = %+v, want nil for unmatched field names", got)
	}
}

func TestPrincipalAuthorities(t *testing.T) {
	p := &Principal{ID: "alice", Authorities: []string{"USER", "AUDITOR"}}

	if !p.HasAuthority("USER") || p.HasAuthority("ADMIN") {
		t.Error("HasAuthority misreported")
	}
	if !p.HasAnyAuthority("ADMIN", "AUDITOR") {
		t.Error("HasAnyAuthority(ADMIN, AUDITOR) = false")
	}
	if p.HasAnyAuthority("ADMIN", "ROOT") {
		t.Error("HasAnyAuthority(ADMIN, ROOT) = true")
	}
	if !p.HasAllAuthorities("USER", "AUDITOR") {
		t.Error("HasAllAuthorities(USER, AUDITOR) = false")
	}
	if p.HasAllAuthorities("USER", "ADMIN") {
		t.Error("HasAllAuthorities(USER, ADMIN) = true")
	}

	var nilP *Principal
	if nilP.HasAuthority("USER") {
		t.Error("nil principal reported an authority")
	}
	if !nilP.HasAllAuthorities() {
		t.Error("nil principal with empty requirement = false")
	}
}
