// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// cleanupInterval is how often idle per-IP limiters are evicted.
const cleanupInterval = 5 * time.Minute

// RateLimiter throttles authentication attempts per client IP. Each IP gets
// a token bucket; idle buckets are evicted in the background.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rateLimiterEntry
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
	stopOnce  sync.Once
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter allows perMinute attempts per IP, with a burst of the same
// size. perMinute <= 0 returns nil, which disables throttling.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	rl := &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     perMinute,
		stopClean: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether an attempt from ip is within the limit. A nil
// limiter always allows.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl == nil {
		return true
	}

	rl.mu.Lock()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &rateLimiterEntry{
			limiter: rate.NewLimiter(rl.rate, rl.burst),
		}
		rl.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() {
		close(rl.stopClean)
	})
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopClean:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-cleanupInterval)
			rl.mu.Lock()
			for ip, entry := range rl.limiters {
				if entry.lastAccess.Before(cutoff) {
					delete(rl.limiters, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}
