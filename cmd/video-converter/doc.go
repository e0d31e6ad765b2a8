// Package main provides the entry point for the video converter server.
//
// The server accepts a video upload on POST /convert, runs it through an
// external encoder (ffmpeg, or a wrapper script) and streams the resulting
// H.264/AAC MP4 back as a download. Every upload is staged on disk under a
// random name and removed, together with the encoder output, before the
// request finishes.
//
// # Application Lifecycle
//
//  1. Configuration Loading: .env file, then environment variables
//  2. Staging Directory: created and write-tested (fatal on failure); files
//     left by a previous crash are swept
//  3. Encoder Check: the executable is resolved and, in ffmpeg mode, asked
//     for its version; a failure only marks the service not ready
//  4. Metrics: label sets pre-populated, staging usage sampled every 30s
//  5. HTTP Server Setup: routes, middleware, optional metrics server
//  6. Graceful Shutdown: SIGINT/SIGTERM stops accepting connections, kills
//     running encoders and waits for their handlers to clean up
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 3000):
//     - POST /convert (multipart: "video" or "videoFile", optional "bitrate")
//     - /health, /healthz, /livez, /readyz, /version
//     - Static frontend and the WebAssembly converter from STATIC_DIR
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Liveness endpoint (/health)
//
// Middleware, outermost first: W3C access log, gzip (not applied to
// /convert), CORS, and per-route Prometheus metrics inside the router.
//
// # Responses
//
//   - 200 with Content-Type video/mp4 and an attachment Content-Disposition
//   - 400 when no file was uploaded or the multipart body is malformed
//   - 413 when the body exceeds MAX_UPLOAD_MB
//   - 500 with a plain-text diagnostic (including encoder stderr) when the
//     encoder fails, produces nothing, times out or cannot be started
//
// See [video-converter/internal/startup] for the environment variables.
//
// # Related Packages
//
//   - [video-converter/internal/handlers]: HTTP request handlers
//   - [video-converter/internal/staging]: upload staging and cleanup
//   - [video-converter/internal/transcoder]: encoder process invocation
//   - [video-converter/internal/streaming]: artifact delivery
//   - [video-converter/internal/encoder]: argument and file name derivation
//   - [video-converter/internal/middleware]: logging, metrics, gzip, CORS
package main
