// Package http provides the admin HTTP server and its middleware.
package http

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CustomLoggerMiddleware logs each request with its request id, method, path,
// status and latency.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.InfoContext(c.Request.Context(), "http request",
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// ipLimiterStore holds per-IP token-bucket limiters with periodic cleanup of
// idle entries.
type ipLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rps      float64
	burst    int
}

type ipLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func (s *ipLimiterStore) get(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter
}

func (s *ipLimiterStore) cleanupStale(maxIdle time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ip, entry := range s.limiters {
		if time.Since(entry.lastAccess) > maxIdle {
			delete(s.limiters, ip)
		}
	}
}

// RateLimitMiddleware enforces per-client-IP rate limiting on the admin API
// using a token bucket per IP.
//
// Returns 429 Too Many Requests with a Retry-After header when the bucket is
// empty.
func RateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &ipLimiterStore{
		limiters: map[string]*ipLimiterEntry{},
		rps:      rps,
		burst:    burst,
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			store.cleanupStale(10 * time.Minute)
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
				ip = host
			}
		}

		limiter := store.get(ip)
		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := int(reservation.Delay().Seconds()) + 1
			reservation.Cancel()

			logger.DebugContext(c.Request.Context(), "rate limit exceeded",
				slog.String("client_ip", ip),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
