// Package middleware provides the HTTP middleware shared by the server routes
package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/respond"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// maxLimiters caps the per-client limiter map before it is reset
const maxLimiters = 10000

// RateLimiter limits requests per signed-in user, or per client IP for
// anonymous requests
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		if len(rl.limiters) >= maxLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}

	return limiter
}

// Handler returns the rate limiting middleware handler
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.getLimiter(key).Allow() {
			logrus.WithFields(logrus.Fields{
				"key":    key,
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("Rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter(rl.rate)))
			respond.Error(w, http.StatusTooManyRequests, "Too many requests. Please wait and try again.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return fmt.Sprintf("user:%d", user.ID)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// retryAfter is the whole number of seconds until one more token is available
func retryAfter(limit rate.Limit) int {
	if limit <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(limit))))
}
