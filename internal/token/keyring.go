// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package token issues and validates the HMAC-signed session tokens that
// carry authenticated identity across requests. Tokens are signed with the
// keyring's active key; retired keys stay resolvable during a rotation
// window so tokens they signed keep validating until they expire.
package token

import (
	"fmt"
)

// minSecretLen is the minimum HMAC secret length in bytes.
const minSecretLen = 32

// Keyring holds HMAC signing secrets by key ID.
// It is immutable after construction and safe for concurrent use; rotation
// is a restart with new configuration.
type Keyring struct {
	activeKID string
	keys      map[string][]byte
}

// NewKeyring builds a keyring from kid->secret pairs. activeKID selects the
// signing key for new tokens and must be present in keys.
func NewKeyring(activeKID string, keys map[string]string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("keyring requires at least one key")
	}
	if _, ok := keys[activeKID]; !ok {
		return nil, fmt.Errorf("active key id %q not present in keyring", activeKID)
	}

	kr := &Keyring{
		activeKID: activeKID,
		keys:      make(map[string][]byte, len(keys)),
	}
	for kid, secret := range keys {
		if len(secret) < minSecretLen {
			return nil, fmt.Errorf("key %q is shorter than %d bytes", kid, minSecretLen)
		}
		kr.keys[kid] = []byte(secret)
	}
	return kr, nil
}

// ActiveKID returns the key ID used for signing new tokens.
func (k *Keyring) ActiveKID() string {
	return k.activeKID
}

// SigningSecret returns the active signing secret.
func (k *Keyring) SigningSecret() []byte {
	return k.keys[k.activeKID]
}

// SecretFor resolves a verification secret by key ID.
func (k *Keyring) SecretFor(kid string) ([]byte, bool) {
	secret, ok := k.keys[kid]
	return secret, ok
}
