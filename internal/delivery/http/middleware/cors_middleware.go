package middleware

import (
	"net/http"
	"strings"

	"clinic-practice-api/config"
)

const (
	corsAllowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowedHeaders = "Content-Type, Authorization"
	// the rate limiter's headers must be readable by browser clients
	corsExposedHeaders = "Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining"
)

// CORSMiddleware admits browser calls from the configured origins. An
// origin outside the list gets no CORS headers, so the browser blocks it.
type CORSMiddleware struct {
	anyOrigin bool
	origins   map[string]bool
}

func NewCORSMiddleware(cfg config.CORSConfig) *CORSMiddleware {
	m := &CORSMiddleware{origins: make(map[string]bool)}
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			m.anyOrigin = true
			continue
		}
		m.origins[strings.TrimSuffix(origin, "/")] = true
	}
	return m
}

func (m *CORSMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if allowed, ok := m.allowedOrigin(req.Header.Get("Origin")); ok {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", corsAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			w.Header().Set("Access-Control-Expose-Headers", corsExposedHeaders)
		}

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, req)
	})
}

func (m *CORSMiddleware) allowedOrigin(origin string) (string, bool) {
	if m.anyOrigin {
		return "*", true
	}
	if origin != "" && m.origins[origin] {
		return origin, true
	}
	return "", false
}
