// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package csrf implements the double-submit anti-forgery guard. The server
// issues a random token in a cookie the client can read; mutating requests
// must echo the token in a header or form field. The cookie value is
// HMAC-wrapped, so a forged cookie cannot manufacture a passing pair.
package csrf

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// cleanupInterval is how often expired tokens are swept.
const cleanupInterval = 10 * time.Minute

// tokenStore tracks issued tokens and their expiry.
type tokenStore struct {
	mu       sync.RWMutex
	tokens   map[string]time.Time
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func newTokenStore(ttl time.Duration) *tokenStore {
	s := &tokenStore{
		tokens:   make(map[string]time.Time),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// issue creates and registers a fresh token.
func (s *tokenStore) issue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)

	s.mu.Lock()
	s.tokens[token] = time.Now().Add(s.ttl)
	s.mu.Unlock()
	return token, nil
}

// valid reports whether token is live.
func (s *tokenStore) valid(token string) bool {
	s.mu.RLock()
	expiry, ok := s.tokens[token]
	s.mu.RUnlock()
	return ok && time.Now().Before(expiry)
}

// invalidate removes a token, e.g. on logout.
func (s *tokenStore) invalidate(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

func (s *tokenStore) stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *tokenStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for token, expiry := range s.tokens {
				if now.After(expiry) {
					delete(s.tokens, token)
				}
			}
			s.mu.Unlock()
		}
	}
}
