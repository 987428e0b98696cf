package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const ServiceSwapper = "swapper"

// RegisterMetrics registers metrics for the specified services
func RegisterMetrics(services []string, logger *logrus.Logger) {
	// Always register Go and process metrics
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", logger)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", logger)

	for _, service := range services {
		switch service {
		case ServiceSwapper:
			registerSwapperMetrics(logger)
		default:
			logger.Warnf("Unknown service type for metrics registration: %s", service)
		}
	}
}

// registerIfNotExists registers a collector if it's not already registered
func registerIfNotExists(collector prometheus.Collector, name string, logger *logrus.Logger) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			// This is expected on restart/reload - just debug log
			logger.Debugf("%s already registered", name)
		} else {
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}

func registerSwapperMetrics(logger *logrus.Logger) {
	registerIfNotExists(swapperSwapsTotal, "swapper_swaps_total", logger)
	registerIfNotExists(swapperSwapDuration, "swapper_swap_duration", logger)
	registerIfNotExists(swapperLastSwapTimestamp, "swapper_last_swap_timestamp", logger)
	registerIfNotExists(swapperApprovalsTotal, "swapper_approvals_total", logger)
	registerIfNotExists(swapperConfirmationsTotal, "swapper_confirmations_total", logger)
	registerIfNotExists(swapperRetriesTotal, "swapper_retries_total", logger)
	registerIfNotExists(swapperGasWaitsTotal, "swapper_gas_waits_total", logger)
	registerIfNotExists(swapperErrorsTotal, "swapper_errors_total", logger)
}
