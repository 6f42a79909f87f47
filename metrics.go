package modkit

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the container's Prometheus collectors.
type Metrics struct {
	resolutions     *prometheus.CounterVec
	factoryDuration *prometheus.HistogramVec
}

// NewMetrics creates the container collectors and registers them with reg.
// Collectors already registered with reg are reused, so several containers
// may share one registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "modkit",
				Subsystem: "container",
				Name:      "resolutions_total",
				Help:      "Total number of token resolutions by outcome.",
			},
			[]string{"token", "lifecycle", "outcome"},
		),
		factoryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "modkit",
				Subsystem: "container",
				Name:      "factory_duration_seconds",
				Help:      "Time spent inside factories, including nested resolutions.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
			},
			[]string{"token"},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.resolutions, err = register(reg, m.resolutions); err != nil {
		return nil, err
	}
	if m.factoryDuration, err = register(reg, m.factoryDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("registering container metrics: %w", err)
	}
	return c, nil
}

func (m *Metrics) observe(token Token, lifecycle Lifecycle, outcome string, took time.Duration) {
	m.resolutions.WithLabelValues(string(token), string(lifecycle), outcome).Inc()
	if outcome != OutcomeCached {
		m.factoryDuration.WithLabelValues(string(token)).Observe(took.Seconds())
	}
}
