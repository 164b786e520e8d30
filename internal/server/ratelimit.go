package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultClientIdle is how long a client's bucket survives without requests.
const DefaultClientIdle = 10 * time.Minute

// Limiter implements per-client rate limiting. Buckets of idle clients expire
// so the table stays bounded by recent traffic.
type Limiter struct {
	clients      *cache.Cache
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	return newLimiter(requestsPerSecond, burst, DefaultClientIdle)
}

func newLimiter(requestsPerSecond float64, burst int, idle time.Duration) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	r := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		r = rate.Inf
	}
	return &Limiter{
		clients:      cache.New(idle, idle),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Allow checks if a request from client is allowed without waiting
func (l *Limiter) Allow(client string) bool {
	return l.getLimiter(client).Allow()
}

// Clients reports how many client buckets are held, expired ones included
// until the next cleanup.
func (l *Limiter) Clients() int { return l.clients.ItemCount() }

func (l *Limiter) getLimiter(client string) *rate.Limiter {
	if v, ok := l.clients.Get(client); ok {
		lim := v.(*rate.Limiter)
		// sliding expiry
		l.clients.Set(client, lim, cache.DefaultExpiration)
		return lim
	}
	lim := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	if err := l.clients.Add(client, lim, cache.DefaultExpiration); err != nil {
		// another request created it first
		if v, ok := l.clients.Get(client); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// Middleware rejects requests over the client's budget with 429. Clients are keyed by RealIP.
func (l *Limiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
