package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"clinic-practice-api/config"
	"clinic-practice-api/pkg/metrics"
	"clinic-practice-api/pkg/response"

	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long a client's bucket survives without traffic
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies a token bucket per client IP
type RateLimitMiddleware struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	rps      rate.Limit
	burst    int
	metrics  *metrics.Collector
	now      func() time.Time
	lastScan time.Time
}

func NewRateLimitMiddleware(cfg config.RateLimitConfig, collector *metrics.Collector) *RateLimitMiddleware {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimitMiddleware{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(cfg.RPS),
		burst:   burst,
		metrics: collector,
		now:     time.Now,
	}
}

func (m *RateLimitMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := m.limiterFor(clientIP(r))
		w.Header().Set("X-RateLimit-Limit", strconv.FormatFloat(float64(m.rps), 'f', 0, 64))

		if !limiter.AllowN(m.now(), 1) {
			m.metrics.RateLimited.Inc()
			w.Header().Set("Retry-After", "1")
			w.Header().Set("X-RateLimit-Remaining", "0")
			response.TooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) limiterFor(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastScan) > idleLimiterTTL {
		for k, c := range m.clients {
			if now.Sub(c.lastSeen) > idleLimiterTTL {
				delete(m.clients, k)
			}
		}
		m.lastScan = now
	}

	c, ok := m.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(m.rps, m.burst)}
		m.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// clientIP prefers the first X-Forwarded-For address and falls back to the
// remote address without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
