package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"map", map[string]string{"status": "ok"}, `{"status":"ok"}`},
		{"nil", nil, `null`},
		{"struct", HealthResponse{Status: "healthy", Ready: true}, `"status":"healthy","ready":true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)
			if !strings.Contains(w.Body.String(), tt.expected) {
				t.Errorf("writeJSON() = %q, want %q", w.Body.String(), tt.expected)
			}
		})
	}
}

func TestWriteJSONInvalidType(t *testing.T) {
	t.Parallel()

	// Channels cannot be encoded; the error is logged, not panicked on.
	w := httptest.NewRecorder()
	writeJSON(w, make(chan int))
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", w.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowed("POST")(w, httptest.NewRequest("GET", "/convert", nil))

	if w.Code != 405 {
		t.Errorf("status = %d, want 405", w.Code)
	}
	if got := w.Header().Get("Allow"); got != "POST" {
		t.Errorf("Allow = %q, want POST", got)
	}
}
