/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler returns a /metrics handler serving the Prometheus formatted statistics of g.
func NewHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	)
}

// Handler returns the /metrics handler of a provider created by NewPrometheusProvider.
func Handler(p interface{ Gatherer() prometheus.Gatherer }) http.Handler {
	return NewHandler(p.Gatherer())
}
