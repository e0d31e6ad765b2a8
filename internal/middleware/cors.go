package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORSConfig holds configuration for the CORS middleware
type CORSConfig struct {
	// AllowedOrigins lists exact origins; "*" allows any.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// ExposedHeaders are readable by browser scripts; the download name
	// travels in Content-Disposition.
	ExposedHeaders []string
	MaxAge         int
}

// DefaultCORSConfig allows any origin to call the conversion API
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "Content-Length"},
		MaxAge:         600,
	}
}

// CORS returns middleware that sets CORS response headers and answers
// preflight requests with 204 without calling the next handler. A preflight
// from an origin that is not allowed gets no Allow-Origin header, so the
// browser blocks the real request.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	origins := make([]string, 0, len(config.AllowedOrigins))
	for _, o := range config.AllowedOrigins {
		origins = append(origins, strings.TrimSuffix(o, "/"))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: config.AllowedMethods,
		AllowedHeaders: config.AllowedHeaders,
		ExposedHeaders: config.ExposedHeaders,
		MaxAge:         config.MaxAge,
	})
	return c.Handler
}
