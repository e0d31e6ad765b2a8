package startup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"video-converter/internal/encoder"
	"video-converter/internal/logging"
	"video-converter/internal/staging"
	"video-converter/internal/transcoder"
	"video-converter/internal/workers"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Port           string
	MetricsPort    string
	MetricsEnabled bool

	StagingDir string
	StaticDir  string

	EncoderPath     string
	EncoderMode     encoder.Mode
	EncoderSettings encoder.Settings
	EncodeTimeout   time.Duration

	// MaxConcurrentEncodes caps simultaneous conversions (0 = unlimited).
	MaxConcurrentEncodes int

	DefaultBitrateKbps int
	MaxUploadBytes     int64

	CORSAllowedOrigins []string
	LogHealthChecks    bool

	// EnvFile is the .env file that was loaded, if any.
	EnvFile string
}

// LoadConfig loads configuration from the environment. A .env file in the
// working directory (or the file named by ENV_FILE) is read first; variables
// already present in the environment take precedence over it.
func LoadConfig() (*Config, error) {
	envFile, envErr := loadDotEnv(getEnv("ENV_FILE", ".env"))

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if envErr != nil {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, envErr)
	}
	if envFile != "" {
		logging.Info("  Loaded environment from %s", envFile)
	}

	enc, err := readEncoderConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		Port:               getEnv("PORT", "3000"),
		MetricsPort:        getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		StagingDir:         getEnv("STAGING_DIR", "./uploads"),
		StaticDir:          getEnv("STATIC_DIR", "./static"),
		EncoderPath:        enc.Path,
		EncoderMode:        enc.Mode,
		EncoderSettings:    enc.Settings,
		EncodeTimeout:      enc.Timeout,
		DefaultBitrateKbps: enc.DefaultBitrateKbps,
		MaxUploadBytes:     int64(getEnvPositiveInt("MAX_UPLOAD_MB", 2048)) << 20,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogHealthChecks:    getEnvBool("LOG_HEALTH_CHECKS", true),
		EnvFile:            envFile,
	}

	limit, err := workers.ParseLimit(getEnv("MAX_CONCURRENT_ENCODES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CONCURRENT_ENCODES: %w", err)
	}
	config.MaxConcurrentEncodes = limit

	logging.Info("  PORT:                  %s", config.Port)
	logging.Info("  METRICS_PORT:          %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:       %v", config.MetricsEnabled)
	logging.Info("  STAGING_DIR:           %s", config.StagingDir)
	logging.Info("  STATIC_DIR:            %s", config.StaticDir)
	logging.Info("  ENCODER_PATH:          %s", config.EncoderPath)
	logging.Info("  ENCODER_MODE:          %s", config.EncoderMode)
	if config.EncoderMode == encoder.ModeFFmpeg {
		logging.Info("  ENCODER_PRESET:        %s", config.EncoderSettings.Preset)
		logging.Info("  ENCODER_CRF:           %d", config.EncoderSettings.CRF)
	}
	logging.Info("  ENCODE_TIMEOUT:        %s", timeoutString(config.EncodeTimeout))
	logging.Info("  DEFAULT_BITRATE_KBPS:  %d", config.DefaultBitrateKbps)
	if config.MaxConcurrentEncodes > 0 {
		logging.Info("  MAX_CONCURRENT_ENCODES: %d (GOMAXPROCS=%d)", config.MaxConcurrentEncodes, runtime.GOMAXPROCS(0))
	} else {
		logging.Info("  MAX_CONCURRENT_ENCODES: unlimited")
	}
	logging.Info("  MAX_UPLOAD_MB:         %s", formatBytes(config.MaxUploadBytes))
	logging.Info("  CORS_ALLOWED_ORIGINS:  %s", strings.Join(config.CORSAllowedOrigins, ", "))
	logging.Info("  LOG_HEALTH_CHECKS:     %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:             %s", logging.GetLevel())
	logging.Info("")

	return config, nil
}

// EncoderConfig is the encoder subset of Config, used by the command-line
// converter which has no HTTP surface.
type EncoderConfig struct {
	Path               string
	Mode               encoder.Mode
	Settings           encoder.Settings
	Timeout            time.Duration
	DefaultBitrateKbps int
}

// LoadEncoderConfig reads the encoder settings from the environment (and
// .env) without printing anything.
func LoadEncoderConfig() (*EncoderConfig, error) {
	if name, err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return readEncoderConfig()
}

func readEncoderConfig() (*EncoderConfig, error) {
	defaults := encoder.DefaultSettings()

	rawMode := getEnv("ENCODER_MODE", string(encoder.ModeFFmpeg))
	mode, ok := encoder.ParseMode(rawMode)
	if !ok {
		return nil, fmt.Errorf("invalid ENCODER_MODE %q (want %q or %q)", rawMode, encoder.ModeFFmpeg, encoder.ModeScript)
	}

	cfg := &EncoderConfig{
		Path:               getEnv("ENCODER_PATH", "ffmpeg"),
		Mode:               mode,
		Timeout:            getEnvDuration("ENCODE_TIMEOUT", 0),
		DefaultBitrateKbps: getEnvPositiveInt("DEFAULT_BITRATE_KBPS", encoder.DefaultBitrateKbps),
		Settings: encoder.Settings{
			VideoCodec: defaults.VideoCodec,
			Preset:     getEnv("ENCODER_PRESET", defaults.Preset),
			CRF:        getEnvInt("ENCODER_CRF", defaults.CRF),
			AudioCodec: defaults.AudioCodec,
		},
	}

	if cfg.Settings.CRF < 0 || cfg.Settings.CRF > 51 {
		return nil, fmt.Errorf("invalid ENCODER_CRF %d (want 0-51)", cfg.Settings.CRF)
	}
	return cfg, nil
}

// loadDotEnv reads path into the process environment. A missing file is
// not an error; the returned name is empty in that case.
func loadDotEnv(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return path, err
	}
	return path, nil
}

// LogStagingInit logs the staging directory setup
func LogStagingInit(path string, swept int, sweepErr error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("STAGING DIRECTORY")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Staging directory is writable: %s", path)

	switch {
	case errors.Is(sweepErr, staging.ErrInUse):
		logging.Warn("  Another instance owns this directory; leftover files were not swept")
	case sweepErr != nil:
		logging.Warn("  Failed to sweep leftover files: %v", sweepErr)
	case swept > 0:
		logging.Info("  Removed %d leftover file(s) from a previous run", swept)
	}
}

// LogEncoderInit checks the encoder executable and logs the result. It
// returns whether the encoder looks usable; a missing encoder is not fatal.
func LogEncoderInit(path string, mode encoder.Mode) bool {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ENCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	version, err := transcoder.CheckEncoder(context.Background(), path, mode)
	if err != nil {
		logging.Warn("  Encoder check failed: %v", err)
		logging.Warn("  Conversions will fail until %s is available", path)
		return false
	}

	if mode == encoder.ModeScript {
		logging.Info("  [OK] Encoder script: %s", version)
	} else {
		logging.Info("  [OK] %s", version)
	}
	return true
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			// PathPrefix-only routes such as the static file server
			path, err = route.GetPathRegexp()
			if err != nil {
				return nil
			}
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   path,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes (debug level) and logging settings
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		sort.SliceStable(routes, func(i, j int) bool {
			return routes[i].Path < routes[j].Path
		})

		logging.Debug("  Registered routes (%d total):", len(routes))
		for _, route := range routes {
			logging.Debug("    %-7s %s", route.Method, route.Path)
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	logging.Info("    Convert:       POST http://0.0.0.0:%s/convert", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
 __     ___     _               ____                          _
 \ \   / (_) __| | ___  ___    / ___|___  _ ____   _____ _ __| |_
  \ \ / /| |/ _' |/ _ \/ _ \  | |   / _ \| '_ \ \ / / _ \ '__| __|
   \ V / | | (_| |  __/ (_) | | |__| (_) | | | \ V /  __/ |  | |_
    \_/  |_|\__,_|\___|\___/   \____\___/|_| |_|\_/ \___|_|   \__|

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func timeoutString(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvPositiveInt(key string, defaultValue int) int {
	n := getEnvInt(key, defaultValue)
	if n <= 0 {
		logging.Warn("%s must be positive, using default: %d", key, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		// Bare numbers are seconds.
		if secs, convErr := strconv.Atoi(value); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return d
}
