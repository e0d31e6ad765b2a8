// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// A .env file (or the file named by ENV_FILE) is read first; variables that
// are already set in the environment win over it.
//
//   - PORT: HTTP server port (default: 3000)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - STAGING_DIR: Directory for uploads and encoder output (default: ./uploads)
//   - STATIC_DIR: Frontend assets served at / (default: ./static)
//   - ENCODER_PATH: Encoder executable or wrapper script (default: ffmpeg)
//   - ENCODER_MODE: "ffmpeg" passes full ffmpeg arguments, "script" passes
//     input, output and bitrate only (default: ffmpeg)
//   - ENCODER_PRESET: x264 preset (default: fast)
//   - ENCODER_CRF: x264 CRF, 0-51 (default: 22)
//   - ENCODE_TIMEOUT: Maximum encoder run time, Go duration or seconds (default: none)
//   - DEFAULT_BITRATE_KBPS: Audio bitrate when the client sends none (default: 30)
//   - MAX_UPLOAD_MB: Request body limit (default: 2048)
//   - CORS_ALLOWED_ORIGINS: Comma-separated origins, or * (default: *)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X video-converter/internal/startup.Version=1.2.0"
//
// # Lifecycle Logging
//
// [LogStagingInit], [LogEncoderInit], [LogHTTPRoutes] and [LogServerStarted]
// print the sectioned startup report; [LogShutdownInitiated] and friends
// cover the way down.
package startup
