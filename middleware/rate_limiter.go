// middleware/rate_limiter.go
package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
	skipPrefixes   []string
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:            make(map[string]*rate.Limiter),
		blockedIPs:     make(map[string]time.Time),
		mu:             &sync.RWMutex{},
		defaultLimit:   rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:   30,
		blockDuration:  5 * time.Minute,
		endpointLimits: make(map[string]endpointLimit),
		skipPrefixes:   []string{"/images/", "/metrics"},
	}

	// Log-in pages get strict limits to slow down password guessing
	for _, path := range []string{"/auth/user/log-in", "/auth/admin/log-in"} {
		limiter.endpointLimits[path] = endpointLimit{limit: rate.Every(2 * time.Second), burst: 5}
	}
	for _, path := range []string{"/auth/user/reset", "/auth/admin/reset", "/auth/user/sign-up", "/auth/admin/sign-up"} {
		limiter.endpointLimits[path] = endpointLimit{limit: rate.Every(time.Second), burst: 5}
	}

	go limiter.cleanupBlockedIPs()

	return limiter
}

// SetEndpointLimit overrides the limit applied to one route path
func (r *RateLimiter) SetEndpointLimit(path string, limit rate.Limit, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpointLimits[path] = endpointLimit{limit: limit, burst: burst}
}

func (r *RateLimiter) cleanupBlockedIPs() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		r.mu.Lock()
		now := time.Now()
		for ip, blockUntil := range r.blockedIPs {
			if now.After(blockUntil) {
				r.resetIP(ip)
			}
		}
		r.mu.Unlock()
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			urlPath := c.Request().URL.Path
			for _, prefix := range r.skipPrefixes {
				if strings.HasPrefix(urlPath, prefix) {
					return next(c)
				}
			}

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if time.Now().Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, blockUntil)
				}
				// Block has expired - remove it and reset the limiters
				r.resetIP(ip)
			}
			endpoint, hasEndpointLimit := r.endpointLimits[c.Path()]
			r.mu.Unlock()

			limit, burst, key := r.defaultLimit, r.defaultBurst, ip
			if hasEndpointLimit {
				limit, burst, key = endpoint.limit, endpoint.burst, ip+"|"+c.Path()
			}

			if !r.getLimiter(key, limit, burst).Allow() {
				blockUntil := time.Now().Add(r.blockDuration)
				r.mu.Lock()
				r.blockedIPs[ip] = blockUntil
				r.mu.Unlock()
				c.Logger().Warnf("Rate limit exceeded by %s on %s", ip, c.Path())
				return tooManyRequests(c, blockUntil)
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.ips[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		r.ips[key] = limiter
	}
	return limiter
}

// resetIP forgets the block and every limiter of ip. Callers hold r.mu.
func (r *RateLimiter) resetIP(ip string) {
	delete(r.blockedIPs, ip)
	for key := range r.ips {
		if key == ip || strings.HasPrefix(key, ip+"|") {
			delete(r.ips, key)
		}
	}
}

func tooManyRequests(c echo.Context, retryAfter time.Time) error {
	c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(time.Until(retryAfter).Seconds())+1))
	return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests. Please try again in a few minutes.")
}
