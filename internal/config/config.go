// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

// Package config holds all Bankgate configuration, loaded from defaults, an
// optional YAML file, and environment variables (later sources override
// earlier ones). The loaded Config is immutable and safe for concurrent
// reads.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Deployment profiles. The permissive authentication provider is only
// selectable outside the production profile; Load rejects the combination so
// the choice is fixed at startup and never reachable from request input.
const (
	ProfileProd = "prod"
	ProfileDev  = "dev"
)

// Authentication provider modes.
const (
	ProviderStrict     = "strict"
	ProviderPermissive = "permissive"
)

// Credential store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

// Config is the root configuration object.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	CSRF     CSRFConfig     `koanf:"csrf"`
	Store    StoreConfig    `koanf:"store"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins is the explicit allow-list of origins. Empty means no
	// cross-origin access; there is no wildcard default.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow bounds throughput per client IP.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// SecurityConfig holds authentication and token configuration.
type SecurityConfig struct {
	// Profile selects the deployment profile: prod or dev.
	Profile string `koanf:"profile"`

	// ProviderMode selects strict or permissive credential verification.
	// Permissive resolves the principal but skips secret verification.
	ProviderMode string `koanf:"provider_mode"`

	// ActiveKeyID names the signing key in Keys used for new tokens.
	ActiveKeyID string `koanf:"active_key_id"`

	// Keys maps key IDs to HMAC secrets. Retired keys stay in the map
	// during a rotation window so tokens they signed still validate.
	Keys map[string]string `koanf:"keys"`

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// TokenResponseHeader carries a freshly issued token to the client;
	// TokenRequestHeader is where clients echo it back.
	TokenResponseHeader string `koanf:"token_response_header"`
	TokenRequestHeader  string `koanf:"token_request_header"`

	// PrincipalField and SecretField name the login form fields.
	PrincipalField string `koanf:"principal_field"`
	SecretField    string `koanf:"secret_field"`

	// BcryptCost is the work factor for newly hashed secrets.
	BcryptCost int `koanf:"bcrypt_cost"`

	// LoginRateLimit caps authentication attempts per IP per minute.
	// Zero disables login throttling.
	LoginRateLimit int `koanf:"login_rate_limit"`
}

// CSRFConfig holds anti-forgery token configuration.
type CSRFConfig struct {
	CookieName    string        `koanf:"cookie_name"`
	HeaderName    string        `koanf:"header_name"`
	FormFieldName string        `koanf:"form_field_name"`
	CookieSecure  bool          `koanf:"cookie_secure"`
	TokenTTL      time.Duration `koanf:"token_ttl"`

	// HashKey signs the CSRF cookie value so a forged cookie cannot pass
	// the double-submit check. Minimum 32 characters.
	HashKey string `koanf:"hash_key"`

	// ExemptPaths is the explicit list of paths excluded from CSRF
	// validation. Literal paths only; no wildcard form exists.
	ExemptPaths []string `koanf:"exempt_paths"`
}

// StoreConfig holds credential store configuration.
type StoreConfig struct {
	// Backend selects the store implementation: memory or badger.
	Backend string `koanf:"backend"`

	// Path is the badger database directory (badger backend only).
	Path string `koanf:"path"`

	// LookupTimeout bounds a single credential lookup. On expiry the
	// request is treated as unauthenticated.
	LookupTimeout time.Duration `koanf:"lookup_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.Security.validate(); err != nil {
		return err
	}
	if err := c.CSRF.validate(); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	return c.Logging.validate()
}

func (s *ServerConfig) validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port)
	}
	if !s.RateLimitDisabled && s.RateLimitRequests < 1 {
		return fmt.Errorf("server.rate_limit_requests must be at least 1 when rate limiting is enabled")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}

func (s *SecurityConfig) validate() error {
	switch s.Profile {
	case ProfileProd, ProfileDev:
	default:
		return fmt.Errorf("security.profile must be %q or %q, got %q", ProfileProd, ProfileDev, s.Profile)
	}

	switch s.ProviderMode {
	case ProviderStrict:
	case ProviderPermissive:
		if s.Profile == ProfileProd {
			return fmt.Errorf("security.provider_mode %q is not selectable in the %q profile", ProviderPermissive, ProfileProd)
		}
	default:
		return fmt.Errorf("security.provider_mode must be %q or %q, got %q", ProviderStrict, ProviderPermissive, s.ProviderMode)
	}

	if len(s.Keys) == 0 {
		return fmt.Errorf("security.keys must contain at least one signing key")
	}
	if s.ActiveKeyID == "" {
		return fmt.Errorf("security.active_key_id is required")
	}
	if _, ok := s.Keys[s.ActiveKeyID]; !ok {
		return fmt.Errorf("security.active_key_id %q has no entry in security.keys", s.ActiveKeyID)
	}
	for kid, key := range s.Keys {
		if len(key) < 32 {
			return fmt.Errorf("security.keys[%s] must be at least 32 characters", kid)
		}
	}

	if s.TokenTTL <= 0 {
		return fmt.Errorf("security.token_ttl must be positive")
	}
	if s.TokenResponseHeader == "" || s.TokenRequestHeader == "" {
		return fmt.Errorf("security.token_response_header and security.token_request_header are required")
	}
	if s.PrincipalField == "" || s.SecretField == "" {
		return fmt.Errorf("security.principal_field and security.secret_field are required")
	}
	if s.BcryptCost < 4 || s.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost must be between 4 and 31, got %d", s.BcryptCost)
	}
	if s.LoginRateLimit < 0 {
		return fmt.Errorf("security.login_rate_limit must not be negative")
	}
	return nil
}

func (c *CSRFConfig) validate() error {
	if c.CookieName == "" || c.HeaderName == "" {
		return fmt.Errorf("csrf.cookie_name and csrf.header_name are required")
	}
	if len(c.HashKey) < 32 {
		return fmt.Errorf("csrf.hash_key must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("csrf.token_ttl must be positive")
	}
	for _, p := range c.ExemptPaths {
		if strings.ContainsAny(p, "*?") {
			return fmt.Errorf("csrf.exempt_paths entries must be literal paths, got %q", p)
		}
	}
	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Backend {
	case StoreMemory:
	case StoreBadger:
		if s.Path == "" {
			return fmt.Errorf("store.path is required for the badger backend")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", StoreMemory, StoreBadger, s.Backend)
	}
	if s.LookupTimeout <= 0 {
		return fmt.Errorf("store.lookup_timeout must be positive")
	}
	return nil
}

func (l *LoggingConfig) validate() error {
	switch strings.ToLower(l.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled", "":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", l.Level)
	}
	switch l.Format {
	case "json", "console", "":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", l.Format)
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
