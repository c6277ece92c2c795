package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig configures CORS. Empty fields take defaults suited to the
// API: GET/POST/OPTIONS, the request id header, and Content-Disposition
// exposed for downloads.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
	Logger           *slog.Logger
}

func (c CORSConfig) withDefaults() CORSConfig {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Accept", "Content-Type", RequestIDHeader}
	}
	if len(c.ExposedHeaders) == 0 {
		c.ExposedHeaders = []string{"Content-Disposition", RequestIDHeader}
	}
	if c.MaxAge == 0 {
		c.MaxAge = 300
	}
	return c
}

// allows reports whether origin may call the API. No configured origins
// means any origin.
func (c CORSConfig) allows(origin string) bool {
	return len(c.AllowedOrigins) == 0 || slices.ContainsFunc(c.AllowedOrigins, func(o string) bool {
		return o == "*" || strings.EqualFold(o, origin)
	})
}

// CORS answers preflight requests with 204 and adds the CORS headers to
// responses for allowed origins.
func CORS(config CORSConfig) func(next http.Handler) http.Handler {
	config = config.withDefaults()
	headers := map[string]string{
		"Access-Control-Allow-Methods":  strings.Join(config.AllowedMethods, ", "),
		"Access-Control-Allow-Headers":  strings.Join(config.AllowedHeaders, ", "),
		"Access-Control-Expose-Headers": strings.Join(config.ExposedHeaders, ", "),
		"Access-Control-Max-Age":        strconv.Itoa(config.MaxAge),
	}
	if config.AllowCredentials {
		headers["Access-Control-Allow-Credentials"] = "true"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := config.allows(origin)

			if allowed && origin != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				for k, v := range headers {
					h.Set(k, v)
				}
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}

			if config.Logger != nil {
				config.Logger.DebugContext(r.Context(), "CORS preflight request",
					slog.String("origin", origin),
					slog.Bool("allowed", allowed))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
