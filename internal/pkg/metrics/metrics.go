package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ReportCycleDuration observes the wall-clock duration of one report cycle.
	ReportCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "oracle_report_cycle_duration_seconds",
		Help:    "Duration of a full report cycle (preflight through publish).",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	// ReportCycleFailures counts aborted report cycles by stage.
	ReportCycleFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_report_cycle_failures_total",
		Help: "Report cycles aborted with an error, labeled by pipeline stage.",
	}, []string{"stage"})

	// AssetAdapterFailures counts asset adapter fetch failures by adapter name.
	AssetAdapterFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_asset_adapter_failures_total",
		Help: "Asset adapter fetches that returned an error.",
	}, []string{"adapter"})

	// PreCheckAttempts counts pre-flight check rounds, labeled by outcome.
	PreCheckAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_precheck_attempts_total",
		Help: "Pre-flight check rounds, labeled passed/failed.",
	}, []string{"outcome"})

	// PriceValidatorFailures counts failing price validators by name.
	PriceValidatorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oracle_price_validator_failures_total",
		Help: "Price validators that failed or errored.",
	}, []string{"validator"})
)

// MustRegisterMetrics registers all oracle collectors with the default
// prometheus registry. Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		ReportCycleDuration,
		ReportCycleFailures,
		AssetAdapterFailures,
		PreCheckAttempts,
		PriceValidatorFailures,
	)
}
