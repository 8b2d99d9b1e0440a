// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer is the iss claim on every Bankgate token.
const tokenIssuer = "bankgate"

// Claims is the Bankgate token payload. Authorities travel as a single
// comma-joined claim.
type Claims struct {
	Username    string `json:"username"`
	Authorities string `json:"authorities"`
	jwt.RegisteredClaims
}

// AuthorityList splits the authorities claim back into names.
func (c *Claims) AuthorityList() []string {
	if c.Authorities == "" {
		return nil
	}
	parts := strings.Split(c.Authorities, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Issuer creates signed tokens with the keyring's active key.
type Issuer struct {
	keyring *Keyring
	ttl     time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// NewIssuer creates an issuer signing with keyring's active key, with the
// given token lifetime.
func NewIssuer(keyring *Keyring, ttl time.Duration) *Issuer {
	return &Issuer{
		keyring: keyring,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue signs a token for the principal. The key ID travels in the token
// header so the validator can resolve the right secret after a rotation.
func (i *Issuer) Issue(username string, authorities []string) (string, error) {
	now := i.now().UTC()

	claims := Claims{
		Username:    username,
		Authorities: strings.Join(authorities, ","),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tok.Header["kid"] = i.keyring.ActiveKID()

	signed, err := tok.SignedString(i.keyring.SigningSecret())
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
