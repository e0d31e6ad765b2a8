package middleware

import "net/http"

// StaticHeaders sets the headers the browser converter page needs.
// FFmpeg.wasm requires SharedArrayBuffer, which browsers only expose to
// cross-origin isolated pages. COEP "credentialless" still allows the
// FFmpeg core to be loaded from a CDN that sends no CORP header.
func StaticHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Embedder-Policy", "credentialless")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
