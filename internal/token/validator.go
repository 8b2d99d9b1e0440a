// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Validation failures. They are distinguished for logs and audit; the HTTP
// boundary collapses all of them into one generic unauthenticated response.
var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrUnknownKeyID   = errors.New("token signed with unknown key id")
)

// Validator verifies token signatures and lifetimes against the keyring.
// Validation is purely cryptographic; the credential store is never
// consulted, so a rotated password does not revoke outstanding tokens.
type Validator struct {
	keyring *Keyring
}

// NewValidator creates a validator resolving secrets from keyring.
func NewValidator(keyring *Keyring) *Validator {
	return &Validator{keyring: keyring}
}

// Validate parses raw, verifies its signature and time bounds, and returns
// the embedded claims. The signature is verified before any payload claim
// is trusted; expiry is checked even when the signature is valid.
func (v *Validator) Validate(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classify(err)
	}
	return claims, nil
}

// keyFunc resolves the verification secret from the kid header.
func (v *Validator) keyFunc(t *jwt.Token) (any, error) {
	kid, ok := t.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, ErrUnknownKeyID
	}
	secret, ok := v.keyring.SecretFor(kid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKeyID, kid)
	}
	return secret, nil
}

// classify maps jwt library errors onto the package taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKeyID):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
