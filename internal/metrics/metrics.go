package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_converter_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_converter_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_converter_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Conversion metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_converter_conversions_total",
			Help: "Total number of finished conversions by outcome",
		},
		[]string{"outcome"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_converter_conversion_duration_seconds",
			Help:    "Encoder wall time in seconds",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"outcome"},
	)

	ConversionsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_converter_conversions_in_progress",
			Help: "Number of encoder processes currently running",
		},
	)

	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_converter_upload_bytes",
			Help:    "Size of staged uploads in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 10),
		},
	)

	UploadsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_converter_uploads_rejected_total",
			Help: "Total number of uploads rejected before staging",
		},
		[]string{"reason"},
	)
)

// Delivery and cleanup metrics
var (
	StreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_converter_stream_errors_total",
			Help: "Total number of artifact deliveries that failed after the response started",
		},
		[]string{"reason"},
	)

	StreamedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_converter_streamed_bytes_total",
			Help: "Total number of artifact bytes delivered to clients",
		},
	)

	CleanupErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_converter_cleanup_errors_total",
			Help: "Total number of staged files that could not be removed",
		},
		[]string{"kind"},
	)

	StagingFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_converter_staging_files",
			Help: "Number of files currently present in the staging directory",
		},
	)

	StagingBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_converter_staging_bytes",
			Help: "Total size of the staging directory in bytes",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_converter_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
