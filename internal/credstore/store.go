// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package credstore persists principal credentials for the authentication
// provider. A credential pairs a stable principal identifier with a tagged
// secret hash and the granted authorities; the hash scheme tag lets the
// password layer rotate algorithms without rewriting stored data.
package credstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no credential exists for a principal.
	ErrNotFound = errors.New("credential not found")

	// ErrTimeout is returned when a lookup exceeds its deadline. Callers
	// treat it as an authentication failure, never as permission to retry.
	ErrTimeout = errors.New("credential lookup timed out")
)

// Credential is a stored principal record.
type Credential struct {
	// PrincipalID is the unique identifier (e.g. username or email).
	PrincipalID string `json:"principal_id"`

	// Scheme tags the hash algorithm of SecretHash ("bcrypt", "plain").
	Scheme string `json:"scheme"`

	// SecretHash is the hashed secret in the tagged scheme's encoding.
	SecretHash string `json:"secret_hash"`

	// Authorities are the granted authority names.
	Authorities []string `json:"authorities"`

	// UpdatedAt records the last write, for operators.
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	out.Authorities = append([]string(nil), c.Authorities...)
	return &out
}

// Store is the credential persistence contract.
//
// Lookup returns ErrNotFound for unknown principals. Rotate atomically
// replaces the secret hash and scheme for an existing principal; concurrent
// rotations for the same principal serialize, last write wins.
type Store interface {
	Lookup(ctx context.Context, principalID string) (*Credential, error)
	Rotate(ctx context.Context, principalID, scheme, secretHash string) error
	Put(ctx context.Context, cred *Credential) error
	Close() error
}
