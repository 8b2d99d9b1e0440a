// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decisions counts access decisions by effect.
	// Labels:
	//   - effect: "allow", "not_authenticated", "forbidden"
	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankgate_authz_decisions_total",
			Help: "Total number of route policy decisions",
		},
		[]string{"effect"},
	)

	// PostFilterDropped counts items removed by ownership post-filtering.
	PostFilterDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bankgate_authz_postfilter_dropped_total",
			Help: "Total number of result items dropped by ownership filtering",
		},
	)
)
