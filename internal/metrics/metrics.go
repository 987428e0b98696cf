// Package metrics provides Prometheus metrics collection for the swapper.
//
// This package includes:
// - swap, approval and confirmation counters
// - retry and gas gate counters
// - Metrics HTTP server on configurable port
//
// Usage:
//
//	import "github.com/vultisig/swapper/internal/metrics"
//
//	// Start metrics server
//	metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceSwapper}, logger)
//	defer metricsServer.Stop(context.Background())
//
//	// Record from the swap flow
//	m := metrics.NewSwapperMetrics()
//	m.RecordSwap("ETH", "USDC", metrics.OutcomeSuccess, time.Since(start))
package metrics
