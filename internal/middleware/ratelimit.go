package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/health-analytics-server/internal/domain"
)

// maxTrackedClients bounds the limiter table.
const maxTrackedClients = 10000

// RateLimiter hands out one token bucket per client. Buckets idle longer
// than the configured TTL are evicted.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter from configuration.
func NewRateLimiter(cfg domain.RateLimitConfig) *RateLimiter {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, ttl),
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    burst,
	}
}

// limiterFor returns the bucket for key, creating it on first use.
func (r *RateLimiter) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(r.limit, r.burst)
	r.limiters.Add(key, l)
	return l
}

// Allow reports whether key may make a request now and, if not, how long it
// should wait.
func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	reservation := r.limiterFor(key).Reserve()
	if !reservation.OK() {
		return false, time.Second
	}
	delay := reservation.Delay()
	if delay == 0 {
		return true, 0
	}
	reservation.Cancel()
	return false, delay
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header. Clients are keyed by IP.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := r.Allow(c.ClientIP())
		if allowed {
			c.Next()
			return
		}

		seconds := int(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, domain.NewAPIError(
			domain.ErrRateLimit,
			"Too many requests",
			"retry after "+strconv.Itoa(seconds)+"s",
			c.GetString(RequestIDKey),
		))
	}
}
