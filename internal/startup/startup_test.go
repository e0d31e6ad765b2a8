package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"video-converter/internal/encoder"

	"github.com/gorilla/mux"
)

var configKeys = []string{
	"PORT", "METRICS_PORT", "METRICS_ENABLED", "STAGING_DIR", "STATIC_DIR",
	"ENCODER_PATH", "ENCODER_MODE", "ENCODER_PRESET", "ENCODER_CRF",
	"ENCODE_TIMEOUT", "DEFAULT_BITRATE_KBPS", "MAX_UPLOAD_MB",
	"CORS_ALLOWED_ORIGINS", "LOG_HEALTH_CHECKS", "MAX_CONCURRENT_ENCODES",
}

// clearConfigEnv unsets every configuration variable for the test and
// points ENV_FILE at a file that does not exist.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Port != "3000" {
		t.Errorf("Port = %q, want 3000", config.Port)
	}
	if config.StagingDir != "./uploads" {
		t.Errorf("StagingDir = %q, want ./uploads", config.StagingDir)
	}
	if config.EncoderPath != "ffmpeg" || config.EncoderMode != encoder.ModeFFmpeg {
		t.Errorf("encoder = %q/%q, want ffmpeg/ffmpeg", config.EncoderPath, config.EncoderMode)
	}
	if config.EncoderSettings != encoder.DefaultSettings() {
		t.Errorf("EncoderSettings = %+v, want defaults", config.EncoderSettings)
	}
	if config.DefaultBitrateKbps != 30 {
		t.Errorf("DefaultBitrateKbps = %d, want 30", config.DefaultBitrateKbps)
	}
	if config.MaxUploadBytes != 2048<<20 {
		t.Errorf("MaxUploadBytes = %d, want 2 GiB", config.MaxUploadBytes)
	}
	if config.EncodeTimeout != 0 {
		t.Errorf("EncodeTimeout = %v, want 0", config.EncodeTimeout)
	}
	if len(config.CORSAllowedOrigins) != 1 || config.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", config.CORSAllowedOrigins)
	}
	if !config.MetricsEnabled || !config.LogHealthChecks {
		t.Error("MetricsEnabled and LogHealthChecks should default to true")
	}
	if config.EnvFile != "" {
		t.Errorf("EnvFile = %q, want empty when no .env exists", config.EnvFile)
	}
	if config.MaxConcurrentEncodes != 0 {
		t.Errorf("MaxConcurrentEncodes = %d, want 0 (unlimited)", config.MaxConcurrentEncodes)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("ENCODER_MODE", "script")
	t.Setenv("ENCODER_PATH", "/opt/convert.sh")
	t.Setenv("ENCODE_TIMEOUT", "90")
	t.Setenv("DEFAULT_BITRATE_KBPS", "-5")
	t.Setenv("MAX_UPLOAD_MB", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("MAX_CONCURRENT_ENCODES", "3")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Port != "8081" {
		t.Errorf("Port = %q", config.Port)
	}
	if config.EncoderMode != encoder.ModeScript || config.EncoderPath != "/opt/convert.sh" {
		t.Errorf("encoder = %q/%q", config.EncoderPath, config.EncoderMode)
	}
	if config.EncodeTimeout != 90*time.Second {
		t.Errorf("EncodeTimeout = %v, want 90s", config.EncodeTimeout)
	}
	if config.DefaultBitrateKbps != encoder.DefaultBitrateKbps {
		t.Errorf("DefaultBitrateKbps = %d, want fallback to %d", config.DefaultBitrateKbps, encoder.DefaultBitrateKbps)
	}
	if config.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d", config.MaxUploadBytes)
	}
	if len(config.CORSAllowedOrigins) != 2 || config.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", config.CORSAllowedOrigins)
	}
	if config.MaxConcurrentEncodes != 3 {
		t.Errorf("MaxConcurrentEncodes = %d, want 3", config.MaxConcurrentEncodes)
	}
}

func TestLoadEncoderConfig(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("ENCODER_MODE", "script")
	t.Setenv("ENCODER_PATH", "/usr/local/bin/wrap.sh")
	t.Setenv("ENCODE_TIMEOUT", "2m")
	t.Setenv("DEFAULT_BITRATE_KBPS", "64")

	cfg, err := LoadEncoderConfig()
	if err != nil {
		t.Fatalf("LoadEncoderConfig() error = %v", err)
	}
	if cfg.Mode != encoder.ModeScript || cfg.Path != "/usr/local/bin/wrap.sh" {
		t.Errorf("encoder = %q/%q", cfg.Path, cfg.Mode)
	}
	if cfg.Timeout != 2*time.Minute || cfg.DefaultBitrateKbps != 64 {
		t.Errorf("Timeout = %v, DefaultBitrateKbps = %d", cfg.Timeout, cfg.DefaultBitrateKbps)
	}

	t.Setenv("ENCODER_CRF", "-1")
	if _, err := LoadEncoderConfig(); err == nil {
		t.Error("LoadEncoderConfig() accepted ENCODER_CRF=-1")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown mode", "ENCODER_MODE", "handbrake"},
		{"crf out of range", "ENCODER_CRF", "70"},
		{"bad concurrency", "MAX_CONCURRENT_ENCODES", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(); err == nil {
				t.Errorf("LoadConfig() with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	clearConfigEnv(t)

	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "PORT=4000\nMETRICS_PORT=9191\nSTAGING_DIR=/srv/staging\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", envFile)
	// The real environment wins over the file.
	t.Setenv("METRICS_PORT", "9999")
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("STAGING_DIR")
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.EnvFile != envFile {
		t.Errorf("EnvFile = %q, want %q", config.EnvFile, envFile)
	}
	if config.Port != "4000" || config.StagingDir != "/srv/staging" {
		t.Errorf("values from .env not applied: port %q staging %q", config.Port, config.StagingDir)
	}
	if config.MetricsPort != "9999" {
		t.Errorf("MetricsPort = %q, environment should override .env", config.MetricsPort)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_BOOL", "nope")
	if got := getEnvBool("TEST_BOOL", true); !got {
		t.Error("invalid bool should fall back to default")
	}

	t.Setenv("TEST_INT", "12x")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt() = %d, want 7", got)
	}

	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 5 * time.Second},
		{"2m", 2 * time.Minute},
		{"45", 45 * time.Second},
		{"soon", 5 * time.Second},
	}
	for _, tt := range tests {
		t.Setenv("TEST_DURATION", tt.value)
		if got := getEnvDuration("TEST_DURATION", 5*time.Second); got != tt.want {
			t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{10 << 20, "10.0 MiB"},
		{2048 << 20, "2.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLogEncoderInit(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "convert.sh")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if !LogEncoderInit(stub, encoder.ModeScript) {
		t.Error("LogEncoderInit() = false for an executable script")
	}
	if LogEncoderInit(filepath.Join(t.TempDir(), "absent"), encoder.ModeFFmpeg) {
		t.Error("LogEncoderInit() = true for a missing encoder")
	}
}

func TestGetRoutes(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/convert", nil).Methods("POST", "OPTIONS").Name("convert")
	r.HandleFunc("/livez", nil).Methods("GET")
	r.PathPrefix("/").Handler(nil)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("got %d routes, want 4: %+v", len(routes), routes)
	}
	if routes[0].Method != "POST" || routes[0].Path != "/convert" || routes[0].Name != "convert" {
		t.Errorf("first route = %+v", routes[0])
	}
	if routes[3].Method != "*" {
		t.Errorf("prefix route method = %q, want *", routes[3].Method)
	}
}
