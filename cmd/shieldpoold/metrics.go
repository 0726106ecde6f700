// metrics.go - Prometheus metrics for the shielded pool daemon
package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/styxlabs/shieldpool/internal/pool"
	"github.com/styxlabs/shieldpool/internal/shield"
)

// Metrics holds the daemon's prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	DepositsTotal     prometheus.Counter
	WithdrawalsTotal  prometheus.Counter
	SwapsTotal        prometheus.Counter
	RejectionsTotal   *prometheus.CounterVec
	LeafCount         prometheus.Gauge
	TreeHeight        prometheus.Gauge
	SpentNullifiers   prometheus.Gauge
	OperationDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		DepositsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shieldpool",
			Name:      "deposits_total",
			Help:      "Number of committed deposits.",
		}),
		WithdrawalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shieldpool",
			Name:      "withdrawals_total",
			Help:      "Number of committed withdrawals.",
		}),
		SwapsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shieldpool",
			Name:      "swaps_total",
			Help:      "Number of committed atomic swaps.",
		}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shieldpool",
			Name:      "rejections_total",
			Help:      "Rejected operations by reason.",
		}, []string{"reason"}),
		LeafCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shieldpool",
			Name:      "leaf_count",
			Help:      "Commitments in the accumulator.",
		}),
		TreeHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shieldpool",
			Name:      "tree_height",
			Help:      "Current accumulator height.",
		}),
		SpentNullifiers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shieldpool",
			Name:      "spent_nullifiers",
			Help:      "Entries in the spend registry.",
		}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shieldpool",
			Name:      "operation_duration_seconds",
			Help:      "Pool operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	registry.MustRegister(
		m.DepositsTotal, m.WithdrawalsTotal, m.SwapsTotal, m.RejectionsTotal,
		m.LeafCount, m.TreeHeight, m.SpentNullifiers, m.OperationDuration,
	)
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePool refreshes the state gauges from a pool snapshot.
func (m *Metrics) ObservePool(stats pool.Stats) {
	m.LeafCount.Set(float64(stats.LeafCount))
	m.TreeHeight.Set(float64(stats.TreeHeight))
	m.SpentNullifiers.Set(float64(stats.SpentCount))
}

// Committed implements pool.Observer.
func (m *Metrics) Committed(op string, elapsed time.Duration) {
	switch op {
	case "deposit":
		m.DepositsTotal.Inc()
	case "withdraw":
		m.WithdrawalsTotal.Inc()
	case "swap":
		m.SwapsTotal.Inc()
	}
	m.OperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Rejected implements pool.Observer, bucketing by taxonomy error.
func (m *Metrics) Rejected(op string, err error) {
	m.RejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, shield.ErrDoubleSpend):
		return "double_spend"
	case errors.Is(err, shield.ErrInvalidProof):
		return "invalid_proof"
	case errors.Is(err, shield.ErrValueConservation):
		return "value_conservation"
	case errors.Is(err, shield.ErrCapacity):
		return "capacity"
	case errors.Is(err, shield.ErrMalformedInput):
		return "malformed_input"
	default:
		return "other"
	}
}
