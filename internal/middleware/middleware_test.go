package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"video-converter/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// captureLog redirects the standard logger for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func okHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, body)
	}
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := newStatusRecorder(w)

	if rec.statusCode != http.StatusOK || rec.wroteHeader {
		t.Fatalf("new recorder = %+v", rec)
	}

	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusInternalServerError)
	if rec.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, second WriteHeader must be ignored", rec.statusCode)
	}

	rec.Write([]byte("hello"))
	if rec.bytesWritten != 5 {
		t.Errorf("bytesWritten = %d, want 5", rec.bytesWritten)
	}

	rec.Flush()
	if !w.Flushed {
		t.Error("Flush was not forwarded")
	}
	if rec.Unwrap() != w {
		t.Error("Unwrap returned the wrong writer")
	}
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		config        LoggingConfig
		expectLogging bool
	}{
		{"logs conversions", "/convert", DefaultLoggingConfig(), true},
		{"skips wasm assets", "/app.wasm", DefaultLoggingConfig(), false},
		{"logs static when enabled", "/app.js", LoggingConfig{LogStaticFiles: true, SkipExtensions: []string{".js"}}, true},
		{"logs health checks when enabled", "/health", LoggingConfig{LogHealthChecks: true}, true},
		{"skips health checks when disabled", "/livez", LoggingConfig{LogHealthChecks: false}, false},
		{"skips configured paths", "/metrics", LoggingConfig{SkipPaths: []string{"/metrics"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			w := httptest.NewRecorder()
			Logger(tt.config)(okHandler("ok")).ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			if logged := buf.Len() > 0; logged != tt.expectLogging {
				t.Errorf("logged = %v, want %v (%q)", logged, tt.expectLogging, buf.String())
			}
		})
	}
}

func TestLoggerW3CLine(t *testing.T) {
	buf := captureLog(t)

	req := httptest.NewRequest(http.MethodPost, "/convert?x=1", http.NoBody)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11)\r\nFAKE 200")
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	Logger(DefaultLoggingConfig())(okHandler("12345")).ServeHTTP(httptest.NewRecorder(), req)

	line := strings.TrimSpace(buf.String())
	if strings.Count(line, "\n") != 0 {
		t.Fatalf("log injection produced multiple lines: %q", line)
	}
	for _, want := range []string{" 203.0.113.9 POST /convert x=1 200 5 ", `"Mozilla/5.0 (X11)  FAKE 200"`, " -"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "9.9.9.9:1", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": "4.3.2.1"}, "9.9.9.9:1", "4.3.2.1"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompressionMiddleware(t *testing.T) {
	tests := []struct {
		name              string
		path              string
		body              string
		contentType       string
		acceptEncoding    string
		expectCompression bool
	}{
		{"compresses large html", "/", strings.Repeat("Hello, World! ", 200), "text/html", "gzip", true},
		{"compresses json", "/health", strings.Repeat(`{"k":"v"}`, 200), "application/json", "gzip, deflate", true},
		{"leaves small responses", "/", "Small", "text/html", "gzip", false},
		{"never compresses mp4", "/other", strings.Repeat("v", 4096), "video/mp4", "gzip", false},
		{"skips /convert", "/convert", strings.Repeat("Hello ", 500), "text/plain", "gzip", false},
		{"respects q=0", "/", strings.Repeat("Hello ", 500), "text/html", "gzip;q=0", false},
		{"no accept-encoding", "/", strings.Repeat("Hello ", 500), "text/html", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				io.WriteString(w, tt.body)
			})

			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			w := httptest.NewRecorder()
			Compression(DefaultCompressionConfig())(handler).ServeHTTP(w, req)

			compressed := w.Header().Get("Content-Encoding") == "gzip"
			if compressed != tt.expectCompression {
				t.Fatalf("compressed = %v, want %v", compressed, tt.expectCompression)
			}

			body := w.Body.Bytes()
			if compressed {
				gr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("invalid gzip body: %v", err)
				}
				if body, err = io.ReadAll(gr); err != nil {
					t.Fatalf("failed to decompress: %v", err)
				}
			}
			if string(body) != tt.body {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.body))
			}
		})
	}
}

func TestCompressionKeepsStatusAndMultipleWrites(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusServiceUnavailable)
		for i := 0; i < 10; i++ {
			io.WriteString(w, strings.Repeat("x", 300))
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	Compression(DefaultCompressionConfig())(handler).ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	gr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("invalid gzip body: %v", err)
	}
	data, _ := io.ReadAll(gr)
	if len(data) != 3000 {
		t.Errorf("decompressed %d bytes, want 3000", len(data))
	}
}

func TestMetricsMiddleware(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/convert", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}).Methods(http.MethodPost)
	r.HandleFunc("/livez", okHandler("alive")).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(okHandler("static"))

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("POST", "/convert", "400"))
	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/convert", http.NoBody))
	}
	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("POST", "/convert", "400")) - before; got != 3 {
		t.Errorf("recorded %v requests, want 3", got)
	}

	skippedBefore := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/livez", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", http.NoBody))
	if testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/livez", "200")) != skippedBefore {
		t.Error("/livez should not be recorded")
	}

	// Arbitrary static paths collapse onto the prefix template.
	staticBefore := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/a/b/c/d/e.js", http.NoBody))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/index.html", http.NoBody))
	if got := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/", "200")) - staticBefore; got != 2 {
		t.Errorf("static requests recorded = %v, want 2", got)
	}

	if got := testutil.ToFloat64(metrics.HTTPRequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge = %v after requests finished", got)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantCode    int
		wantAllow   string
		wantReached bool
	}{
		{"no origin header", []string{"*"}, http.MethodPost, "", false, http.StatusOK, "", true},
		{"wildcard", []string{"*"}, http.MethodPost, "https://app.example", false, http.StatusOK, "*", true},
		{"listed origin", []string{"https://app.example"}, http.MethodPost, "https://app.example", false, http.StatusOK, "https://app.example", true},
		{"unlisted origin", []string{"https://app.example"}, http.MethodPost, "https://evil.example", false, http.StatusOK, "", true},
		{"preflight", []string{"*"}, http.MethodOptions, "https://app.example", true, http.StatusNoContent, "*", false},
		{"preflight unlisted", []string{"https://app.example"}, http.MethodOptions, "https://evil.example", true, http.StatusNoContent, "", false},
		{"listed origin with trailing slash", []string{"https://app.example/"}, http.MethodPost, "https://app.example", false, http.StatusOK, "https://app.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			})

			config := DefaultCORSConfig()
			config.AllowedOrigins = tt.origins

			req := httptest.NewRequest(tt.method, "/convert", http.NoBody)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			CORS(config)(next).ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if reached != tt.wantReached {
				t.Errorf("next reached = %v, want %v", reached, tt.wantReached)
			}
			if tt.preflight && tt.wantAllow != "" {
				if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST") {
					t.Error("preflight missing POST in Allow-Methods")
				}
				if w.Header().Get("Access-Control-Max-Age") != "600" {
					t.Errorf("Max-Age = %q, want 600", w.Header().Get("Access-Control-Max-Age"))
				}
			}
			if tt.origin != "" && !strings.Contains(strings.Join(w.Header().Values("Vary"), ","), "Origin") {
				t.Error("response does not vary on Origin")
			}
			if !tt.preflight && tt.wantAllow != "" && !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
				t.Errorf("Expose-Headers = %q, want Content-Disposition", w.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}

func BenchmarkLoggingMiddleware(b *testing.B) {
	log.SetOutput(io.Discard)
	handler := Logger(DefaultLoggingConfig())(okHandler("ok"))
	req := httptest.NewRequest(http.MethodGet, "/convert", http.NoBody)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func BenchmarkCompressionMiddleware(b *testing.B) {
	body := strings.Repeat("Hello, World! ", 200)
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, body)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Accept-Encoding", "gzip")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func TestStaticHeaders(t *testing.T) {
	handler := StaticHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Embedder-Policy": "credentialless",
		"X-Content-Type-Options":       "nosniff",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}
