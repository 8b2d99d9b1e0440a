// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package password hashes and verifies secrets through a scheme registry.
// Stored hashes carry a scheme tag next to them in the credential store, so
// verification dispatches on the tag and the hash algorithm can rotate
// without invalidating existing records. Hashing always uses the modern
// scheme.
package password

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Scheme tags stored alongside hashes.
const (
	SchemeBcrypt = "bcrypt"
	SchemePlain  = "plain"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// Hasher hashes new secrets with the modern scheme and verifies stored
// hashes of any registered scheme.
type Hasher struct {
	cost int
}

// NewHasher creates a hasher with the given bcrypt cost. Costs outside
// bcrypt's supported range fall back to DefaultBcryptCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Hasher{cost: cost}
}

// Hash hashes secret with the modern scheme and returns the scheme tag plus
// the encoded hash.
func (h *Hasher) Hash(secret string) (scheme, value string, err error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", "", fmt.Errorf("hashing secret: %w", err)
	}
	return SchemeBcrypt, string(hashed), nil
}

// Verify reports whether secret matches the stored hash under the tagged
// scheme. Unknown schemes verify false; they never error, so a bad record
// reads as a bad secret rather than a server fault.
func (h *Hasher) Verify(secret, scheme, value string) bool {
	switch scheme {
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(value), []byte(secret)) == nil
	case SchemePlain:
		// Legacy records store the raw secret. Constant-time compare keeps
		// the verification free of content-dependent timing.
		return subtle.ConstantTimeCompare([]byte(secret), []byte(value)) == 1
	default:
		return false
	}
}

// dummyHash is a bcrypt hash of an unguessable throwaway value. Verifying
// against it costs the same as a real bcrypt comparison.
var dummyHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("bankgate-dummy-comparison-subject"), DefaultBcryptCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// VerifyDummy burns one bcrypt comparison and always reports false. The
// authentication provider calls it for unknown principals so that unknown
// principal and wrong secret share a timing class.
func (h *Hasher) VerifyDummy(secret string) bool {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(secret))
	return false
}
