// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vmmanager

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "azure_cpi"
	metricsSubsystem = "vm"
)

// Outcomes of a Create call.
const (
	OutcomeSucceeded     = "succeeded"
	OutcomeTerminal      = "terminal"
	OutcomeExhausted     = "exhausted"
	OutcomeAborted       = "aborted"
	OutcomeCleanupFailed = "cleanup_failed"
)

// Metrics counts VM creation attempts and their outcomes. It
// implements prometheus.Collector.
type Metrics struct {
	attempts prometheus.Counter
	retries  prometheus.Counter
	outcomes *prometheus.CounterVec
}

// NewMetrics returns a new Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "create_attempts_total",
			Help:      "The number of VM creation requests submitted to the provider.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "create_retries_total",
			Help:      "The number of VM creations retried after failing in provisioning.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "create_outcomes_total",
			Help:      "The number of VM creation calls by outcome.",
		}, []string{"outcome"}),
	}
}

// Describe is part of the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.attempts.Describe(ch)
	m.retries.Describe(ch)
	m.outcomes.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.attempts.Collect(ch)
	m.retries.Collect(ch)
	m.outcomes.Collect(ch)
}

func (m *Metrics) attempt() {
	if m != nil {
		m.attempts.Inc()
	}
}

func (m *Metrics) retry() {
	if m != nil {
		m.retries.Inc()
	}
}

func (m *Metrics) outcome(outcome string) {
	if m != nil {
		m.outcomes.WithLabelValues(outcome).Inc()
	}
}
