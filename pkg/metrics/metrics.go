// Package metrics provides Prometheus metrics for the wager engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// SlipMetrics collects and exposes bet-slip metrics.
type SlipMetrics struct {
	registry *prometheus.Registry

	// Placement metrics
	WagersPlaced      *prometheus.CounterVec
	PlacementFailures *prometheus.CounterVec
	StakeAmount       *prometheus.HistogramVec
	PotentialPayout   prometheus.Histogram
	SelectionsPerSlip prometheus.Histogram

	// Validation metrics
	ValidationFailures *prometheus.CounterVec

	// Wallet metrics
	WalletAvailable prometheus.Gauge

	// Engine state
	SlipStatus *prometheus.GaugeVec
}

// NewSlipMetrics creates a metrics collector with its own registry.
func NewSlipMetrics() *SlipMetrics {
	registry := prometheus.NewRegistry()

	m := &SlipMetrics{
		registry: registry,

		WagersPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betslip_wagers_placed_total",
				Help: "Total number of confirmed wager placements",
			},
			[]string{"bet_type"},
		),
		PlacementFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betslip_placement_failures_total",
				Help: "Gateway placement failures by category",
			},
			[]string{"category"},
		),
		StakeAmount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "betslip_stake_dollars",
				Help:    "Stake size of placed wagers",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"bet_type"},
		),
		PotentialPayout: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "betslip_potential_payout_dollars",
				Help:    "Potential payout of placed wagers",
				Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
			},
		),
		SelectionsPerSlip: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "betslip_selections_per_wager",
				Help:    "Number of legs on placed wagers",
				Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
			},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betslip_validation_failures_total",
				Help: "Client-side validation failures by reason",
			},
			[]string{"reason"},
		),
		WalletAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "betslip_wallet_available_dollars",
				Help: "Last known available wallet balance",
			},
		),
		SlipStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "betslip_status",
				Help: "Current submission status (1 = active status)",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.WagersPlaced,
		m.PlacementFailures,
		m.StakeAmount,
		m.PotentialPayout,
		m.SelectionsPerSlip,
		m.ValidationFailures,
		m.WalletAvailable,
		m.SlipStatus,
	)

	return m
}

// Handler returns an HTTP handler serving the registry.
func (m *SlipMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordPlacement records a confirmed wager.
func (m *SlipMetrics) RecordPlacement(betType string, stake, payout decimal.Decimal, legs int) {
	m.WagersPlaced.WithLabelValues(betType).Inc()
	m.StakeAmount.WithLabelValues(betType).Observe(stake.InexactFloat64())
	m.PotentialPayout.Observe(payout.InexactFloat64())
	m.SelectionsPerSlip.Observe(float64(legs))
}

// RecordPlacementFailure records a gateway failure.
func (m *SlipMetrics) RecordPlacementFailure(category string) {
	m.PlacementFailures.WithLabelValues(category).Inc()
}

// RecordValidationFailure records a client-side rejection.
func (m *SlipMetrics) RecordValidationFailure(reason string) {
	m.ValidationFailures.WithLabelValues(reason).Inc()
}

// SetWalletAvailable records the last known balance.
func (m *SlipMetrics) SetWalletAvailable(available decimal.Decimal) {
	m.WalletAvailable.Set(available.InexactFloat64())
}

// SetStatus marks the active submission status.
func (m *SlipMetrics) SetStatus(status string) {
	m.SlipStatus.Reset()
	m.SlipStatus.WithLabelValues(status).Set(1)
}
