// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts counts authentication attempts.
	// Labels:
	//   - carrier: "basic", "form", "bearer"
	//   - outcome: "success", "failure"
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankgate_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"carrier", "outcome"},
	)

	// AuthDuration measures credential verification latency. Buckets span
	// the bcrypt cost range.
	AuthDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bankgate_auth_duration_seconds",
			Help:    "Duration of credential verification in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"carrier"},
	)

	// TokenValidationFailures counts rejected bearer tokens by internal
	// failure class.
	TokenValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankgate_token_validation_failures_total",
			Help: "Total number of rejected bearer tokens",
		},
		[]string{"reason"},
	)

	// LoginThrottled counts authentication attempts rejected by the per-IP
	// rate limiter.
	LoginThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bankgate_login_throttled_total",
			Help: "Total number of rate-limited authentication attempts",
		},
	)
)
