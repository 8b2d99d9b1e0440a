// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
)

// credKeyPrefix namespaces credential records in the shared database.
const credKeyPrefix = "cred:"

// BadgerStore persists credentials in an embedded badger database so they
// survive restarts. Values are JSON-encoded Credential records.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening credential database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func credKey(principalID string) []byte {
	return []byte(credKeyPrefix + principalID)
}

// Lookup returns the credential for principalID, or ErrNotFound.
func (s *BadgerStore) Lookup(ctx context.Context, principalID string) (*Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cred Credential
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(credKey(principalID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cred)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential: %w", err)
	}
	return &cred, nil
}

// Put inserts or replaces a credential.
func (s *BadgerStore) Put(ctx context.Context, cred *Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cred == nil || cred.PrincipalID == "" {
		return fmt.Errorf("credential requires a principal id")
	}

	stored := cred.Clone()
	stored.UpdatedAt = time.Now().UTC()

	val, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(credKey(stored.PrincipalID), val)
	})
	if err != nil {
		return fmt.Errorf("writing credential: %w", err)
	}
	return nil
}

// Rotate replaces the secret hash and scheme for an existing principal. The
// read and write share one transaction, so a concurrent rotation for the
// same principal conflicts and retries rather than interleaving.
func (s *BadgerStore) Rotate(ctx context.Context, principalID, scheme, secretHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(credKey(principalID))
		if err != nil {
			return err
		}
		var cred Credential
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cred)
		}); err != nil {
			return err
		}
		cred.Scheme = scheme
		cred.SecretHash = secretHash
		cred.UpdatedAt = time.Now().UTC()

		val, err := json.Marshal(&cred)
		if err != nil {
			return err
		}
		return txn.Set(credKey(principalID), val)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("rotating credential: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
