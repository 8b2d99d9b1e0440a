// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/bankgate/bankgate/internal/config"
	"github.com/bankgate/bankgate/internal/credstore"
	"github.com/bankgate/bankgate/internal/password"
)

// Reason labels why an authentication attempt failed. Reasons are internal:
// they reach logs and the audit trail but never the client, where unknown
// principal and bad secret collapse into one opaque response.
type Reason string

const (
	ReasonUnknownPrincipal Reason = "unknown_principal"
	ReasonBadSecret        Reason = "bad_secret"
	ReasonStoreTimeout     Reason = "store_timeout"
	ReasonBadToken         Reason = "bad_token"
)

// Result is the outcome of an authentication attempt: either a principal or
// a failure reason, never both.
type Result struct {
	Principal *Principal
	Reason    Reason
}

// Success reports whether the attempt authenticated a principal.
func (r Result) Success() bool {
	return r.Principal != nil
}

func failure(reason Reason) Result {
	return Result{Reason: reason}
}

// Provider verifies principal/secret credentials.
type Provider interface {
	Authenticate(ctx context.Context, principalID, secret string) Result
}

// StrictProvider verifies secrets against the credential store through the
// scheme-dispatched hasher.
type StrictProvider struct {
	store  credstore.Store
	hasher *password.Hasher
}

// NewStrictProvider creates the production verification provider.
func NewStrictProvider(store credstore.Store, hasher *password.Hasher) *StrictProvider {
	return &StrictProvider{store: store, hasher: hasher}
}

// Authenticate looks up the principal and verifies the secret. For unknown
// principals a dummy hash comparison runs anyway, keeping unknown principal
// and wrong secret in the same timing class.
func (p *StrictProvider) Authenticate(ctx context.Context, principalID, secret string) Result {
	cred, err := p.store.Lookup(ctx, principalID)
	switch {
	case errors.Is(err, credstore.ErrNotFound):
		p.hasher.VerifyDummy(secret)
		return failure(ReasonUnknownPrincipal)
	case errors.Is(err, credstore.ErrTimeout):
		return failure(ReasonStoreTimeout)
	case err != nil:
		return failure(ReasonStoreTimeout)
	}

	if !p.hasher.Verify(secret, cred.Scheme, cred.SecretHash) {
		return failure(ReasonBadSecret)
	}

	return Result{Principal: &Principal{
		ID:          cred.PrincipalID,
		Authorities: cred.Authorities,
	}}
}

// PermissiveProvider resolves the principal but accepts any secret. It
// exists for development and demos only; the constructor refuses to build
// one under the production profile, mirroring the config-load gate.
type PermissiveProvider struct {
	store credstore.Store
}

// NewPermissiveProvider creates the non-verifying provider. profile must
// not be the production profile.
func NewPermissiveProvider(store credstore.Store, profile string) (*PermissiveProvider, error) {
	if profile == config.ProfileProd {
		return nil, fmt.Errorf("permissive provider is not available in the %s profile", config.ProfileProd)
	}
	return &PermissiveProvider{store: store}, nil
}

// Authenticate resolves the principal without verifying the secret.
// Unknown principals still fail; authorities always come from the store.
func (p *PermissiveProvider) Authenticate(ctx context.Context, principalID, _ string) Result {
	cred, err := p.store.Lookup(ctx, principalID)
	switch {
	case errors.Is(err, credstore.ErrNotFound):
		return failure(ReasonUnknownPrincipal)
	case errors.Is(err, credstore.ErrTimeout):
		return failure(ReasonStoreTimeout)
	case err != nil:
		return failure(ReasonStoreTimeout)
	}

	return Result{Principal: &Principal{
		ID:          cred.PrincipalID,
		Authorities: cred.Authorities,
	}}
}

// NewProvider builds the provider selected by cfg. The permissive/prod
// combination is already rejected at config load; the constructor check is
// the second gate.
func NewProvider(cfg *config.SecurityConfig, store credstore.Store, hasher *password.Hasher) (Provider, error) {
	switch cfg.ProviderMode {
	case config.ProviderStrict:
		return NewStrictProvider(store, hasher), nil
	case config.ProviderPermissive:
		return NewPermissiveProvider(store, cfg.Profile)
	default:
		return nil, fmt.Errorf("unknown provider mode %q", cfg.ProviderMode)
	}
}
