package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"video-converter/internal/handlers"
	"video-converter/internal/logging"
	"video-converter/internal/memory"
	"video-converter/internal/metrics"
	"video-converter/internal/middleware"
	"video-converter/internal/staging"
	"video-converter/internal/startup"
	"video-converter/internal/transcoder"

	"github.com/gorilla/mux"
)

const (
	shutdownTimeout         = 30 * time.Second
	metricsCollectInterval  = 30 * time.Second
	readHeaderTimeout       = 15 * time.Second
	idleTimeout             = 60 * time.Second
	metricsReadWriteTimeout = 10 * time.Second
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// After LoadConfig so MEMORY_LIMIT can come from .env.
	memory.ConfigureFromEnv()

	// Staging directory is required; the service cannot accept uploads without it.
	dir, err := staging.Prepare(config.StagingDir)
	if err != nil {
		startup.LogFatal("Staging directory error: %v", err)
	}
	swept, sweepErr := dir.Sweep()
	startup.LogStagingInit(dir.Path(), swept, sweepErr)

	encoderOK := startup.LogEncoderInit(config.EncoderPath, config.EncoderMode)
	trans := transcoder.New(transcoder.Config{
		ExecutablePath: config.EncoderPath,
		Mode:           config.EncoderMode,
		Settings:       config.EncoderSettings,
		Timeout:        config.EncodeTimeout,
	})

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	collector := metrics.NewCollector(dir, metricsCollectInterval)
	collector.Start()

	h := handlers.New(dir, trans, config, encoderOK)

	router := setupRouter(h, config.StaticDir)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := newServer(config, buildHandler(router, config))

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, trans, collector, dir)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, staticDir string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Preflight OPTIONS requests are answered by the CORS middleware.
	r.HandleFunc("/convert", h.Convert).Methods("POST").Name("convert")
	r.Handle("/convert", handlers.MethodNotAllowed("POST"))

	r.PathPrefix("/").Handler(middleware.StaticHeaders(http.FileServer(http.Dir(filepath.Clean(staticDir)))))

	return r
}

// buildHandler wraps the router in the middleware that must also see
// unmatched requests.
func buildHandler(router http.Handler, config *startup.Config) http.Handler {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = config.CORSAllowedOrigins

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	handler := middleware.CORS(cors)(router)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)
	return middleware.Logger(loggingConfig)(handler)
}

func newServer(config *startup.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    ":" + config.Port,
		Handler: handler,
		// Uploads and encodes can each take minutes; only the header read is bounded.
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       0,
		WriteTimeout:      0,
		IdleTimeout:       idleTimeout,
	}
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	serveMux := http.NewServeMux()
	serveMux.Handle("/metrics", h.MetricsHandler())
	serveMux.HandleFunc("/health", h.LivenessCheck)

	return &http.Server{
		Addr:         ":" + port,
		Handler:      serveMux,
		ReadTimeout:  metricsReadWriteTimeout,
		WriteTimeout: metricsReadWriteTimeout,
		IdleTimeout:  30 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, trans *transcoder.Transcoder, collector *metrics.Collector, dir *staging.Dir) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	shutdown(srv, metricsSrv, trans, collector)
	if err := dir.Close(); err != nil {
		logging.Warn("Failed to release staging directory: %v", err)
	}
	startup.LogShutdownComplete()
}

// shutdown stops accepting connections, kills running encoders so their
// handlers can clean up and return, then waits for those handlers.
func shutdown(srv, metricsSrv *http.Server, trans *transcoder.Transcoder, collector *metrics.Collector) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan error, 1)
	startup.LogShutdownStep("Shutting down HTTP server")
	go func() { done <- srv.Shutdown(ctx) }()

	startup.LogShutdownStep("Stopping encoders")
	if n := trans.Active(); n > 0 {
		logging.Info("  Killing %d running encoder(s)", n)
	}
	trans.Shutdown()
	startup.LogShutdownStepComplete("Encoders stopped")

	if err := <-done; err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}
}
