// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package credstore

import (
	"context"
	"errors"
	"time"
)

// TimeoutStore bounds every operation on the wrapped store with a deadline.
// An expired lookup surfaces as ErrTimeout; the caller treats the request as
// unauthenticated. There are no retries.
type TimeoutStore struct {
	inner   Store
	timeout time.Duration
}

// NewTimeoutStore wraps inner with the given per-operation timeout.
func NewTimeoutStore(inner Store, timeout time.Duration) *TimeoutStore {
	return &TimeoutStore{inner: inner, timeout: timeout}
}

func (s *TimeoutStore) Lookup(ctx context.Context, principalID string) (*Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cred, err := s.inner.Lookup(ctx, principalID)
	if isDeadline(err) {
		return nil, ErrTimeout
	}
	return cred, err
}

func (s *TimeoutStore) Put(ctx context.Context, cred *Credential) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.inner.Put(ctx, cred)
	if isDeadline(err) {
		return ErrTimeout
	}
	return err
}

func (s *TimeoutStore) Rotate(ctx context.Context, principalID, scheme, secretHash string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.inner.Rotate(ctx, principalID, scheme, secretHash)
	if isDeadline(err) {
		return ErrTimeout
	}
	return err
}

func (s *TimeoutStore) Close() error {
	return s.inner.Close()
}

func isDeadline(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
