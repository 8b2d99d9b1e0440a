// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package credstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestCredential(id string) *Credential {
	return &Credential{
		PrincipalID: id,
		Scheme:      "bcrypt",
		SecretHash:  "$2a$12$examplehashvalue",
		Authorities: []string{"USER"},
	}
}

// storeFactories lets the contract tests run against every backend.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"badger": func(t *testing.T) Store {
			s, err := NewBadgerStore(t.TempDir())
			if err != nil {
				t.Fatalf("opening badger store: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStoreLookupAndPut(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			if _, err := s.Lookup(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Lookup(unknown) = %v, want ErrNotFound", err)
			}

			if err := s.Put(ctx, newTestCredential("alice")); err != nil {
				t.Fatalf("Put() error: %v", err)
			}

			cred, err := s.Lookup(ctx, "alice")
			if err != nil {
				t.Fatalf("Lookup() error: %v", err)
			}
			if cred.Scheme != "bcrypt" {
				t.Errorf("Scheme = %q, want bcrypt", cred.Scheme)
			}
			if len(cred.Authorities) != 1 || cred.Authorities[0] != "USER" {
				t.Errorf("Authorities = %v, want [USER]", cred.Authorities)
			}
		})
	}
}

func TestStoreRotate(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			if err := s.Rotate(ctx, "nobody", "bcrypt", "x"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Rotate(unknown) = %v, want ErrNotFound", err)
			}

			cred := newTestCredential("alice")
			cred.Scheme = "plain"
			cred.SecretHash = "letmein"
			if err := s.Put(ctx, cred); err != nil {
				t.Fatalf("Put() error: %v", err)
			}

			if err := s.Rotate(ctx, "alice", "bcrypt", "$2a$12$rotated"); err != nil {
				t.Fatalf("Rotate() error: %v", err)
			}

			got, err := s.Lookup(ctx, "alice")
			if err != nil {
				t.Fatalf("Lookup() error: %v", err)
			}
			if got.Scheme != "bcrypt" || got.SecretHash != "$2a$12$rotated" {
				t.Errorf("after rotate: scheme=%q hash=%q", got.Scheme, got.SecretHash)
			}
			// Authorities survive a rotation untouched.
			if len(got.Authorities) != 1 || got.Authorities[0] != "USER" {
				t.Errorf("Authorities = %v, want [USER]", got.Authorities)
			}
		})
	}
}

func TestMemoryStoreLookupIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, newTestCredential("alice")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	cred, err := s.Lookup(ctx, "alice")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	cred.Authorities[0] = "ADMIN"

	again, err := s.Lookup(ctx, "alice")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if again.Authorities[0] != "USER" {
		t.Error("mutating a returned credential changed stored state")
	}
}

func TestMemoryStoreConcurrentRotate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, newTestCredential("alice")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Rotate(ctx, "alice", "bcrypt", "$2a$12$concurrent")
		}()
	}
	wg.Wait()

	got, err := s.Lookup(ctx, "alice")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if got.SecretHash != "$2a$12$concurrent" {
		t.Errorf("SecretHash = %q after concurrent rotations", got.SecretHash)
	}
}

// slowStore stalls until its context expires.
type slowStore struct{}

func (slowStore) Lookup(ctx context.Context, _ string) (*Credential, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowStore) Put(ctx context.Context, _ *Credential) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowStore) Rotate(ctx context.Context, _, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (slowStore) Close() error { return nil }

func TestTimeoutStoreFailsClosed(t *testing.T) {
	s := NewTimeoutStore(slowStore{}, 10*time.Millisecond)

	start := time.Now()
	_, err := s.Lookup(context.Background(), "alice")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Lookup() = %v, want ErrTimeout", err)
	}
	if elapsed > time.Second {
		t.Errorf("Lookup() took %v, deadline not applied", elapsed)
	}
}

func TestTimeoutStorePassesThrough(t *testing.T) {
	inner := NewMemoryStore()
	s := NewTimeoutStore(inner, time.Second)
	ctx := context.Background()

	if err := s.Put(ctx, newTestCredential("alice")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	cred, err := s.Lookup(ctx, "alice")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if cred.PrincipalID != "alice" {
		t.Errorf("PrincipalID = %q, want alice", cred.PrincipalID)
	}

	if _, err := s.Lookup(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(unknown) = %v, want ErrNotFound", err)
	}
}
