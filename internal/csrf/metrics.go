// Bankgate - Request Authentication and Authorization Pipeline
// Copyright 2026 The Bankgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bankgate/bankgate

package csrf

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejections counts failed anti-forgery checks.
// Labels:
//   - reason: "missing_cookie", "expired_token", "missing_echo", "token_mismatch"
var Rejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bankgate_csrf_rejections_total",
		Help: "Total number of requests rejected by the anti-forgery guard",
	},
	[]string{"reason"},
)
