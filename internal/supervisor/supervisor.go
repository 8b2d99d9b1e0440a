// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package supervisor runs the gateway's long-lived services under a suture
// supervision tree so that a crashed service is restarted with backoff
// instead of taking the process down.
package supervisor

import (
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Config tunes the restart policy of the root supervisor.
type Config struct {
	// FailureThreshold is the failure score that triggers backoff.
	FailureThreshold float64

	// FailureDecay is the half-life of the failure score in seconds.
	FailureDecay float64

	// FailureBackoff is how long the supervisor pauses once the
	// threshold is exceeded.
	FailureBackoff time.Duration
}

// DefaultConfig mirrors suture's built-in defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
	}
}

// New builds the root supervisor. Supervision events are reported through
// the given slog logger, which the caller bridges to the process logger.
func New(logger *slog.Logger, cfg Config) *suture.Supervisor {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5.0
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30.0
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}

	// MustHook has a pointer receiver, so the handler must be addressable.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	return suture.New("bankgate", suture.Spec{
		EventHook:        hook,
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
	})
}
