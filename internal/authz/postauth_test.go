// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package authz

import (
	"testing"

	"github.com/bankgate/bankgate/internal/auth"
)

type loan struct {
	ID    int
	Owner string
}

func (l loan) OwnerID() string { return l.Owner }

func TestPostDecide(t *testing.T) {
	own := loan{ID: 1, Owner: "alice"}

	tests := []struct {
		name      string
		principal *auth.Principal
		want      Effect
	}{
		{"owner sees own", &auth.Principal{ID: "alice", Authorities: []string{"USER"}}, EffectAllow},
		{"other user denied", &auth.Principal{ID: "bob", Authorities: []string{"USER"}}, EffectDenyForbidden},
		{"admin bypasses ownership", &auth.Principal{ID: "root", Authorities: []string{AuthorityAdmin}}, EffectAllow},
		{"anonymous denied", nil, EffectDenyNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PostDecide(tt.principal, own); got != tt.want {
				t.Errorf("PostDecide() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterOwned(t *testing.T) {
	loans := []loan{
		{ID: 1, Owner: "alice"},
		{ID: 2, Owner: "bob"},
		{ID: 3, Owner: "alice"},
	}

	t.Run("user keeps only own items", func(t *testing.T) {
		p := &auth.Principal{ID: "alice", Authorities: []string{"USER"}}
		got := FilterOwned(p, loans)
		if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
			t.Errorf("FilterOwned() = %v, want alice's loans 1 and 3", got)
		}
	})

	t.Run("admin keeps all items", func(t *testing.T) {
		p := &auth.Principal{ID: "root", Authorities: []string{AuthorityAdmin}}
		if got := FilterOwned(p, loans); len(got) != 3 {
			t.Errorf("FilterOwned() kept %d items, want 3", len(got))
		}
	})

	t.Run("anonymous sees nothing", func(t *testing.T) {
		if got := FilterOwned(nil, loans); got != nil {
			t.Errorf("FilterOwned(nil) = %v, want nil", got)
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		p := &auth.Principal{ID: "alice", Authorities: []string{"USER"}}
		_ = FilterOwned(p, loans)
		if len(loans) != 3 {
			t.Error("FilterOwned modified the input slice")
		}
	})
}
