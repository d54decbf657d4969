package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection check metrics
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgprobe_checks_total",
			Help: "Total number of connection checks performed",
		},
		[]string{"outcome"}, // "success" or "failure"
	)

	CheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pgprobe_check_duration_seconds",
			Help:    "Duration of connection checks in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LastCheckSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pgprobe_last_check_success",
			Help: "Outcome of the most recent connection check (1=success, 0=failure)",
		},
	)

	LastCheckTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pgprobe_last_check_timestamp_seconds",
			Help: "Unix timestamp of the most recent connection check",
		},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgprobe_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status code",
		},
		[]string{"endpoint", "status"},
	)

	// General application metrics
	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pgprobe_uptime_seconds",
			Help: "Uptime of the process in seconds",
		},
	)
)

// RecordCheck updates the check metrics after a connection attempt
func RecordCheck(success bool, timestamp float64) {
	if success {
		ChecksTotal.WithLabelValues("success").Inc()
		LastCheckSuccess.Set(1)
	} else {
		ChecksTotal.WithLabelValues("failure").Inc()
		LastCheckSuccess.Set(0)
	}
	LastCheckTimestamp.Set(timestamp)
}
