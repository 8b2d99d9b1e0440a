// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package authz

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/bankgate/bankgate/internal/auth"
)

//go:embed model.conf
var embeddedModel string

// Effect is the outcome of an access decision.
type Effect int

const (
	// EffectAllow admits the request.
	EffectAllow Effect = iota

	// EffectDenyNotAuthenticated denies because no principal is present.
	// The HTTP boundary renders it as 401.
	EffectDenyNotAuthenticated

	// EffectDenyForbidden denies an authenticated principal. Rendered 403.
	EffectDenyForbidden
)

func (e Effect) String() string {
	switch e {
	case EffectAllow:
		return "allow"
	case EffectDenyNotAuthenticated:
		return "not_authenticated"
	case EffectDenyForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decision is an access decision with the policy that produced it. Policy
// is nil when no rule matched (default deny).
type Decision struct {
	Effect Effect
	Policy *RoutePolicy
}

// Enforcer evaluates the route policy table. Public, Authenticated, and
// AllAuthorities requirements short-circuit natively; AnyAuthority rules
// compile into casbin policies so authority hierarchy (g lines) applies.
type Enforcer struct {
	table    Table
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer compiles table into an enforcer. hierarchy maps an authority
// to the authorities it inherits, e.g. {"ADMIN": {"USER"}} lets ADMIN pass
// any rule USER passes.
func NewEnforcer(table Table, hierarchy map[string][]string) (*Enforcer, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("loading authorization model: %w", err)
	}
	ce, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("creating enforcer: %w", err)
	}

	for i := range table {
		p := &table[i]
		if p.Require.Kind != RequireAnyAuthority {
			continue
		}
		methods := p.Methods
		if len(methods) == 0 {
			methods = []string{"*"}
		}
		for _, authority := range p.Require.Authorities {
			for _, method := range methods {
				if _, err := ce.AddPolicy(authority, p.Pattern, method); err != nil {
					return nil, fmt.Errorf("adding policy for %s on %s: %w", authority, p.Pattern, err)
				}
			}
		}
	}

	for child, parents := range hierarchy {
		for _, parent := range parents {
			if _, err := ce.AddGroupingPolicy(child, parent); err != nil {
				return nil, fmt.Errorf("adding hierarchy %s -> %s: %w", child, parent, err)
			}
		}
	}

	return &Enforcer{table: table, enforcer: ce}, nil
}

// DefaultHierarchy is empty: authorities do not imply one another, and a
// route an ADMIN may also reach lists ADMIN explicitly (see /myBalance in
// DefaultTable). Deployments that want inheritance pass their own map.
func DefaultHierarchy() map[string][]string {
	return map[string][]string{}
}

// Decide evaluates the table for the request. principal is nil for
// anonymous callers. Unmatched routes are denied.
func (e *Enforcer) Decide(principal *auth.Principal, path, method string) (Decision, error) {
	policy, ok := e.table.Match(path, method)
	if !ok {
		return deny(principal, nil), nil
	}

	switch policy.Require.Kind {
	case RequirePublic:
		return Decision{Effect: EffectAllow, Policy: policy}, nil

	case RequireAuthenticated:
		if principal == nil {
			return deny(principal, policy), nil
		}
		return Decision{Effect: EffectAllow, Policy: policy}, nil

	case RequireAllAuthorities:
		if principal == nil {
			return deny(principal, policy), nil
		}
		if principal.HasAllAuthorities(policy.Require.Authorities...) {
			return Decision{Effect: EffectAllow, Policy: policy}, nil
		}
		return deny(principal, policy), nil

	case RequireAnyAuthority:
		if principal == nil {
			return deny(principal, policy), nil
		}
		for _, authority := range principal.Authorities {
			allowed, err := e.enforcer.Enforce(authority, path, method)
			if err != nil {
				return Decision{}, fmt.Errorf("enforcing %s on %s: %w", authority, path, err)
			}
			if allowed {
				return Decision{Effect: EffectAllow, Policy: policy}, nil
			}
		}
		return deny(principal, policy), nil

	default:
		return deny(principal, policy), nil
	}
}

// deny maps an unsatisfied requirement to the right denial class: missing
// identity is 401 territory, insufficient identity is 403.
func deny(principal *auth.Principal, policy *RoutePolicy) Decision {
	if principal == nil {
		return Decision{Effect: EffectDenyNotAuthenticated, Policy: policy}
	}
	return Decision{Effect: EffectDenyForbidden, Policy: policy}
}
