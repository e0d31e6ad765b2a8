// Package middleware provides HTTP middleware for the video converter.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - gzip compression for text responses (artifacts are never compressed)
//   - CORS headers and preflight handling for the conversion API
package middleware
