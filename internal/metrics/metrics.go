package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	MeasurementsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obras_measurements_submitted_total",
			Help: "Total number of period measurements recorded",
		},
		[]string{"status"}, // status: success, rejected, failed
	)

	GlosaComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "obras_glosa_computed_total",
			Help: "Glosa tiers reached by saved measurements, by tier lower bound",
		},
		[]string{"tier"},
	)

	ProjectsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "obras_projects_imported_total",
			Help: "Total number of projects imported from spreadsheets",
		},
	)
)

func RecordHTTPRequestDuration(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementMeasurement(status string) {
	MeasurementsSubmitted.WithLabelValues(status).Inc()
}

// IncrementGlosa counts one measured period in the tier starting at minIDP.
func IncrementGlosa(minIDP float64) {
	GlosaComputed.WithLabelValues(strconv.FormatFloat(minIDP, 'f', 2, 64)).Inc()
}

func IncrementImport() {
	ProjectsImported.Inc()
}
