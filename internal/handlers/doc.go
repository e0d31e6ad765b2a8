// Package handlers provides the HTTP handlers for the video converter.
//
// It includes handlers for:
//   - Conversion (POST /convert): stage the upload, run the encoder, stream the MP4
//   - Health, liveness and readiness probes
//   - Build/version information
//   - Prometheus metrics
package handlers
