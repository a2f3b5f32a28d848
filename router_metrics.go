// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pxroute

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision sources used as metric labels.
const (
	sourceBypass = "bypass"
	sourcePAC    = "pac"
	sourceNone   = "none"
)

type routerMetrics struct {
	decisions      *prometheus.CounterVec
	scriptFailures prometheus.Counter
	duration       prometheus.Histogram
	scriptUpdates  prometheus.Counter
	bypassUpdates  prometheus.Counter
}

func newRouterMetrics(r prometheus.Registerer, namespace string) *routerMetrics {
	if r == nil {
		r = prometheus.NewRegistry() // This registry will be discarded.
	}
	f := promauto.With(r)

	return &routerMetrics{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "route_decisions_total",
			Namespace: namespace,
			Help:      "Number of routing decisions by source",
		}, []string{"source"}),
		scriptFailures: f.NewCounter(prometheus.CounterOpts{
			Name:      "pac_script_failures_total",
			Namespace: namespace,
			Help:      "Number of PAC script evaluations that fell back to the heuristic",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:      "route_duration_seconds",
			Namespace: namespace,
			Help:      "Time spent deciding a route",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		scriptUpdates: f.NewCounter(prometheus.CounterOpts{
			Name:      "pac_script_updates_total",
			Namespace: namespace,
			Help:      "Number of PAC script replacements",
		}),
		bypassUpdates: f.NewCounter(prometheus.CounterOpts{
			Name:      "bypass_config_updates_total",
			Namespace: namespace,
			Help:      "Number of bypass configuration replacements",
		}),
	}
}

func (m *routerMetrics) decision(source string, start time.Time) {
	m.decisions.WithLabelValues(source).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}

func (m *routerMetrics) scriptFailure(error) {
	m.scriptFailures.Inc()
}
