// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package credstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory credential store. Reads take the shared lock;
// writes take the exclusive lock, which serializes concurrent rotations for
// the same principal.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]*Credential
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		creds: make(map[string]*Credential),
	}
}

// Lookup returns the credential for principalID, or ErrNotFound.
func (s *MemoryStore) Lookup(ctx context.Context, principalID string) (*Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[principalID]
	if !ok {
		return nil, ErrNotFound
	}
	return cred.Clone(), nil
}

// Put inserts or replaces a credential.
func (s *MemoryStore) Put(ctx context.Context, cred *Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cred == nil || cred.PrincipalID == "" {
		return fmt.Errorf("credential requires a principal id")
	}

	stored := cred.Clone()
	stored.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[stored.PrincipalID] = stored
	return nil
}

// Rotate replaces the secret hash and scheme for an existing principal.
func (s *MemoryStore) Rotate(ctx context.Context, principalID, scheme, secretHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[principalID]
	if !ok {
		return ErrNotFound
	}
	cred.Scheme = scheme
	cred.SecretHash = secretHash
	cred.UpdatedAt = time.Now().UTC()
	return nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
