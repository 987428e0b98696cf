package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Swap attempts by pair and outcome
	swapperSwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swapper",
			Subsystem: "swap",
			Name:      "swaps_total",
			Help:      "Total number of swap attempts",
		},
		[]string{"from_asset", "to_asset", "outcome"}, // success, failed, timed_out, route_not_found, error
	)

	swapperSwapDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "swapper",
			Subsystem: "swap",
			Name:      "duration_seconds",
			Help:      "Time taken by one swap attempt, broadcast to confirmation",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 180, 300},
		},
	)

	swapperLastSwapTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "swapper",
			Subsystem: "swap",
			Name:      "last_swap_timestamp",
			Help:      "Timestamp of last swap attempt",
		},
	)

	swapperApprovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swapper",
			Subsystem: "allowance",
			Name:      "approvals_total",
			Help:      "Total number of approval transactions sent",
		},
		[]string{"token"},
	)

	swapperConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swapper",
			Subsystem: "watcher",
			Name:      "confirmations_total",
			Help:      "Total number of watched transactions by result",
		},
		[]string{"result"}, // confirmed_success, confirmed_failure, timed_out, not_found
	)

	swapperRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "swapper",
			Subsystem: "retry",
			Name:      "retries_total",
			Help:      "Total number of retried attempts",
		},
	)

	swapperGasWaitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "swapper",
			Subsystem: "gas_gate",
			Name:      "waits_total",
			Help:      "Total number of base fee rechecks above the ceiling",
		},
	)

	// Error rate tracking
	swapperErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swapper",
			Subsystem: "swap",
			Name:      "errors_total",
			Help:      "Total number of swap errors",
		},
		[]string{"error_type"}, // validation, execution, signing, network
	)
)

// Outcome labels for RecordSwap
const (
	OutcomeSuccess       = "success"
	OutcomeFailed        = "failed"
	OutcomeTimedOut      = "timed_out"
	OutcomeRouteNotFound = "route_not_found"
	OutcomeError         = "error"
)

// SwapperMetrics updates swapper metrics. A nil *SwapperMetrics records nothing.
type SwapperMetrics struct{}

func NewSwapperMetrics() *SwapperMetrics {
	return &SwapperMetrics{}
}

// RecordSwap records one swap attempt
func (m *SwapperMetrics) RecordSwap(fromAsset, toAsset, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	swapperSwapsTotal.WithLabelValues(fromAsset, toAsset, outcome).Inc()
	swapperSwapDuration.Observe(duration.Seconds())
	swapperLastSwapTimestamp.Set(float64(time.Now().Unix()))
}

func (m *SwapperMetrics) RecordApproval(token string) {
	if m == nil {
		return
	}
	swapperApprovalsTotal.WithLabelValues(token).Inc()
}

func (m *SwapperMetrics) RecordConfirmation(result string) {
	if m == nil {
		return
	}
	swapperConfirmationsTotal.WithLabelValues(result).Inc()
}

func (m *SwapperMetrics) RecordRetry() {
	if m == nil {
		return
	}
	swapperRetriesTotal.Inc()
}

func (m *SwapperMetrics) RecordGasWait() {
	if m == nil {
		return
	}
	swapperGasWaitsTotal.Inc()
}

// RecordError records different types of swapper errors
func (m *SwapperMetrics) RecordError(errorType string) {
	if m == nil {
		return
	}
	swapperErrorsTotal.WithLabelValues(errorType).Inc()
}

// Error type constants for consistent labeling
const (
	ErrorTypeValidation = "validation"
	ErrorTypeExecution  = "execution"
	ErrorTypeSigning    = "signing"
	ErrorTypeNetwork    = "network"
)
