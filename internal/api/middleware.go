// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/bankgate/bankgate/internal/config"
)

// corsMiddleware builds the CORS layer from the configured origin
// allow-list. No origins configured means no cross-origin access.
func corsMiddleware(cfg *config.ServerConfig, tokenHeaders ...string) func(http.Handler) http.Handler {
	allowedHeaders := append([]string{"Content-Type", "Authorization", "X-Request-ID", "X-XSRF-TOKEN"}, tokenHeaders...)

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   append([]string{ErrorReasonHeader, "X-Request-ID"}, tokenHeaders...),
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	})
}

// rateLimitMiddleware builds the global per-IP throughput limit. This is
// coarse flood protection; the finer login throttle lives in the
// authentication stage.
func rateLimitMiddleware(cfg *config.ServerConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(WriteTooManyRequests),
	)
}
