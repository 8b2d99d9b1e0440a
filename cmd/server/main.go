// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package main is the entry point for the Bankgate server.
//
// Bankgate is a request authentication and authorization gateway: every
// request passes a fixed pipeline of anti-forgery guard, credential or
// token authentication, and route policy enforcement before it reaches a
// handler. Components are initialized in dependency order:
//
//  1. Configuration: defaults, optional YAML file, environment variables
//  2. Credential store: in-memory or BadgerDB, wrapped in a lookup timeout
//  3. Token layer: HMAC keyring, issuer, validator
//  4. Audit log: asynchronous, never blocks request handling
//  5. Pipeline middlewares: CSRF guard, authentication, policy gate
//  6. HTTP server: chi router under a suture supervision tree
//
// The server shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bankgate/bankgate/internal/api"
	"github.com/bankgate/bankgate/internal/audit"
	"github.com/bankgate/bankgate/internal/auth"
	"github.com/bankgate/bankgate/internal/authz"
	"github.com/bankgate/bankgate/internal/config"
	"github.com/bankgate/bankgate/internal/credstore"
	"github.com/bankgate/bankgate/internal/csrf"
	"github.com/bankgate/bankgate/internal/logging"
	"github.com/bankgate/bankgate/internal/password"
	"github.com/bankgate/bankgate/internal/supervisor"
	"github.com/bankgate/bankgate/internal/token"
)

func main() {
	configPath := flag.String("config", os.Getenv("BANKGATE_CONFIG"), "path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("profile", cfg.Security.Profile).
		Str("provider_mode", cfg.Security.ProviderMode).
		Msg("Starting Bankgate")

	store, err := buildStore(&cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open credential store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing credential store")
		}
	}()

	hasher := password.NewHasher(cfg.Security.BcryptCost)

	provider, err := auth.NewProvider(&cfg.Security, store, hasher)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build authentication provider")
	}

	keyring, err := token.NewKeyring(cfg.Security.ActiveKeyID, cfg.Security.Keys)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build signing keyring")
	}
	issuer := token.NewIssuer(keyring, cfg.Security.TokenTTL)
	tokenValidator := token.NewValidator(keyring)
	logging.Info().
		Str("active_kid", keyring.ActiveKID()).
		Int("keys", len(cfg.Security.Keys)).
		Dur("token_ttl", cfg.Security.TokenTTL).
		Msg("Token layer initialized")

	auditLog := audit.NewLogger(audit.NewMemoryStore(0), 0)
	defer func() {
		if err := auditLog.Close(); err != nil {
			logging.Error().Err(err).Msg("Error draining audit log")
		}
	}()

	csrfGuard := csrf.NewGuard(cfg.CSRF, auditLog, api.WriteCSRFRejected)
	defer csrfGuard.Close()

	limiter := auth.NewRateLimiter(cfg.Security.LoginRateLimit)
	defer limiter.Stop()

	extractor := auth.NewExtractor(
		cfg.Security.TokenRequestHeader,
		cfg.Security.PrincipalField,
		cfg.Security.SecretField,
	)
	authn := auth.NewMiddleware(
		provider,
		tokenValidator,
		extractor,
		limiter,
		auditLog,
		api.WriteAuthenticationFailure,
		api.WriteTooManyRequests,
	)

	enforcer, err := authz.NewEnforcer(authz.DefaultTable(), authz.DefaultHierarchy())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build policy enforcer")
	}
	gate := authz.NewMiddleware(enforcer, auditLog, api.WriteAuthenticationFailure, api.WriteAccessDenied)

	if cfg.Security.Profile == config.ProfileDev {
		if err := seedDevCredentials(store, hasher); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed development credentials")
		}
		logging.Warn().Msg("Development credentials seeded; never enable the dev profile in production")
	}

	handlers := api.NewHandlers(
		issuer,
		keyring.ActiveKID(),
		cfg.Security.TokenResponseHeader,
		store,
		hasher,
		auditLog,
		csrfGuard,
	)
	router := api.NewRouter(
		&cfg.Server,
		cfg.Security.TokenRequestHeader,
		csrfGuard,
		authn,
		gate,
		handlers,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	sup := supervisor.New(logging.NewSlogLogger(), supervisor.DefaultConfig())
	sup.Add(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Listening")
	if err := <-sup.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor exited with error")
		return
	}
	logging.Info().Msg("Shutdown complete")
}

// buildStore opens the configured credential store backend and wraps it in
// the lookup timeout so a stalled backend fails closed.
func buildStore(cfg *config.StoreConfig) (credstore.Store, error) {
	var inner credstore.Store
	switch cfg.Backend {
	case config.StoreBadger:
		badgerStore, err := credstore.NewBadgerStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		inner = badgerStore
		logging.Info().Str("path", cfg.Path).Msg("BadgerDB credential store opened")
	default:
		inner = credstore.NewMemoryStore()
		logging.Info().Msg("In-memory credential store selected")
	}
	return credstore.NewTimeoutStore(inner, cfg.LookupTimeout), nil
}

// seedDevCredentials loads well-known accounts for local development. The
// dev profile is rejected by config validation when combined with settings
// that only make sense in production, so these never reach a real
// deployment.
func seedDevCredentials(store credstore.Store, hasher *password.Hasher) error {
	seeds := []struct {
		id          string
		secret      string
		authorities []string
	}{
		{"alice", "alice-dev-password", []string{authz.AuthorityUser}},
		{"bob", "bob-dev-password", []string{authz.AuthorityUser}},
		{"admin", "admin-dev-password", []string{authz.AuthorityAdmin}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, s := range seeds {
		if _, err := store.Lookup(ctx, s.id); err == nil {
			continue
		} else if !errors.Is(err, credstore.ErrNotFound) {
			return err
		}

		scheme, hash, err := hasher.Hash(s.secret)
		if err != nil {
			return err
		}
		cred := &credstore.Credential{
			PrincipalID: s.id,
			Scheme:      scheme,
			SecretHash:  hash,
			Authorities: s.authorities,
			UpdatedAt:   time.Now().UTC(),
		}
		if err := store.Put(ctx, cred); err != nil {
			return err
		}
		logging.Info().Str("principal", s.id).Msg("Seeded development credential")
	}
	return nil
}
