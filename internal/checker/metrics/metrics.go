package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	NvmeofSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nvmeof_sweeps_total",
			Help: "Number of inventory sweeps started",
		},
	)

	NvmeofChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nvmeof_checks_total",
			Help: "Number of discovery checks by outcome",
		},
		[]string{"outcome"},
	)

	NvmeofTargetDiscoverable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nvmeof_target_discoverable",
			Help: "Whether the target was discoverable in its last check (1 or 0)",
		},
		[]string{"target"},
	)

	NvmeofCheckDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nvmeof_check_duration_seconds",
			Help:    "Time taken by a single discovery check",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(NvmeofSweepsTotal)
	prometheus.MustRegister(NvmeofChecksTotal)
	prometheus.MustRegister(NvmeofTargetDiscoverable)
	prometheus.MustRegister(NvmeofCheckDurationSeconds)
}
