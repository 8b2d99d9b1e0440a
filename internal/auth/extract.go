// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package auth

import (
	"net/http"
	"strings"
)

// Credential carriers, in evaluation order. A bearer token short-circuits
// the others; it authenticates without touching the credential store.
const (
	CarrierBearer = "bearer"
	CarrierBasic  = "basic"
	CarrierForm   = "form"
)

// Credentials is what a request presented, before verification.
type Credentials struct {
	// Carrier identifies where the credentials came from.
	Carrier string

	// PrincipalID and Secret are set for basic and form carriers.
	PrincipalID string
	Secret      string

	// Token is set for the bearer carrier.
	Token string
}

// Extractor pulls credentials out of requests according to the configured
// header and form field names.
type Extractor struct {
	tokenHeader    string
	principalField string
	secretField    string
}

// NewExtractor creates an extractor. tokenHeader is where bearer tokens
// arrive; principalField/secretField name the login form fields.
func NewExtractor(tokenHeader, principalField, secretField string) *Extractor {
	return &Extractor{
		tokenHeader:    tokenHeader,
		principalField: principalField,
		secretField:    secretField,
	}
}

// Extract returns the request's credentials, or nil when none are present.
// Carriers are tried in order: bearer token, Basic header, form fields.
// Exactly one carrier is selected per request.
func (e *Extractor) Extract(r *http.Request) *Credentials {
	if token := e.bearerToken(r); token != "" {
		return &Credentials{Carrier: CarrierBearer, Token: token}
	}

	if id, secret, ok := r.BasicAuth(); ok {
		return &Credentials{Carrier: CarrierBasic, PrincipalID: id, Secret: secret}
	}

	if id, secret, ok := e.formCredentials(r); ok {
		return &Credentials{Carrier: CarrierForm, PrincipalID: id, Secret: secret}
	}

	return nil
}

// bearerToken reads the configured token header. When the header is
// Authorization the value must carry the Bearer prefix; a Basic value in
// the same header falls through to the basic carrier.
func (e *Extractor) bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get(e.tokenHeader))
	if raw == "" {
		return ""
	}

	if len(raw) > 7 && strings.EqualFold(raw[:7], "Bearer ") {
		return strings.TrimSpace(raw[7:])
	}

	// A dedicated token header carries the raw token without a prefix.
	if !strings.EqualFold(e.tokenHeader, "Authorization") {
		return raw
	}
	return ""
}

// formCredentials reads the configured form fields from POST bodies.
func (e *Extractor) formCredentials(r *http.Request) (id, secret string, ok bool) {
	if r.Method != http.MethodPost {
		return "", "", false
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/x-www-form-urlencoded") &&
		!strings.HasPrefix(ct, "multipart/form-data") {
		return "", "", false
	}

	id = r.PostFormValue(e.principalField)
	secret = r.PostFormValue(e.secretField)
	if id == "" {
		return "", "", false
	}
	return id, secret, true
}
