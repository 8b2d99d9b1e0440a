// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces Bankgate environment variables, e.g.
// BANKGATE_SECURITY_PROFILE=prod maps to security.profile.
const envPrefix = "BANKGATE_"

// Default returns the built-in configuration. Secrets (signing keys, CSRF
// hash key) have no defaults and must come from a file or the environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Security: SecurityConfig{
			Profile:             ProfileDev,
			ProviderMode:        ProviderStrict,
			TokenTTL:            8 * time.Hour,
			TokenResponseHeader: "Authorization",
			TokenRequestHeader:  "Authorization",
			PrincipalField:      "username",
			SecretField:         "password",
			BcryptCost:          12,
			LoginRateLimit:      10,
		},
		CSRF: CSRFConfig{
			CookieName:    "XSRF-TOKEN",
			HeaderName:    "X-XSRF-TOKEN",
			FormFieldName: "_csrf",
			CookieSecure:  true,
			TokenTTL:      12 * time.Hour,
			ExemptPaths:   []string{"/contact", "/register"},
		},
		Store: StoreConfig{
			Backend:       StoreMemory,
			LookupTimeout: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path (skipped when path is empty), and environment variables, then
// validates the result. A Config returned by Load is ready to use.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envKeyTransform maps BANKGATE_SECTION_SOME_KEY to section.some_key.
// The first underscore separates the section from the key; remaining
// underscores are preserved so multi-word keys round-trip.
func envKeyTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.Replace(s, "_", ".", 1)
}
