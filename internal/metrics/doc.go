// Package metrics provides Prometheus instrumentation for the video converter.
//
// All metrics are prefixed with "video_converter_" to avoid naming collisions
// with other applications.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Conversion Metrics
//
//   - ConversionsTotal: Counter of finished conversions by outcome
//   - ConversionDuration: Histogram of encoder wall time by outcome
//   - ConversionsInProgress: Gauge of live encoder child processes
//   - UploadBytes: Histogram of staged upload sizes
//   - UploadsRejectedTotal: Counter of uploads refused before staging, by reason
//
// ## Delivery and Cleanup Metrics
//
//   - StreamErrorsTotal: Counter of responses that failed after headers were sent
//   - StreamedBytesTotal: Counter of artifact bytes delivered to clients
//   - CleanupErrorsTotal: Counter of staged files that could not be removed
//   - StagingFiles / StagingBytes: Gauges sampled from the staging directory
//
// # Usage
//
// Metrics register themselves through promauto at package init. Call
// InitializeMetrics once at startup so every label combination is exported
// from the first scrape, and start a Collector to sample the staging
// directory. The /metrics endpoint is served on its own port by main.
package metrics
