package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Article-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audio_articles",
			Subsystem: "article_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "audio_articles",
			Subsystem: "article_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audio_articles",
			Subsystem: "article_api",
			Name:      "uploads_total",
			Help:      "Total asset uploads",
		},
		[]string{"kind", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audio_articles",
			Subsystem: "article_api",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"kind"},
	)

	// Duration estimation strategies
	EstimationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audio_articles",
			Subsystem: "article_api",
			Name:      "duration_estimations_total",
			Help:      "Total duration estimation attempts by strategy outcome",
		},
		[]string{"strategy", "status"},
	)

	// Live measurements (reconciler / repair paths)
	LiveMeasurementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audio_articles",
			Subsystem: "article_api",
			Name:      "live_measurements_total",
			Help:      "Total live duration measurements against stored assets",
		},
		[]string{"status"},
	)

	// Duration backfill writes
	BackfillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audio_articles",
			Subsystem: "article_api",
			Name:      "duration_backfills_total",
			Help:      "Total asynchronous duration backfill writes",
		},
		[]string{"status"},
	)

	// Storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "audio_articles",
			Subsystem: "article_api",
			Name:      "storage_operations_total",
			Help:      "Total object storage operations",
		},
		[]string{"operation", "status"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records an asset upload
func RecordUpload(kind, status string, bytes int64) {
	UploadsTotal.WithLabelValues(kind, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(kind).Add(float64(bytes))
	}
}

// RecordEstimation records one duration estimation strategy attempt
func RecordEstimation(strategy, status string) {
	EstimationsTotal.WithLabelValues(strategy, status).Inc()
}

// RecordLiveMeasurement records a live measurement attempt
func RecordLiveMeasurement(status string) {
	LiveMeasurementsTotal.WithLabelValues(status).Inc()
}

// RecordBackfill records an asynchronous duration backfill write
func RecordBackfill(status string) {
	BackfillsTotal.WithLabelValues(status).Inc()
}

// RecordStorageOperation records an object storage operation
func RecordStorageOperation(operation, status string) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
}
