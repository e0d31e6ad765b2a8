package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"video-converter/internal/logging"
)

// writeJSON encodes v as JSON. Encoding errors are only logged; the status
// line has already been sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, status string) {
	writeJSON(w, map[string]string{"status": status})
}

// MethodNotAllowed answers 405 with an Allow header. It is registered after
// a method-restricted route so that other methods do not fall through to
// the static file server.
func MethodNotAllowed(allowed ...string) http.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", allow)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
