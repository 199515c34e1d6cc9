package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Limiter answers whether one more request under key is allowed right now.
// Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter keeps a token bucket per key in process memory. A janitor
// drops buckets idle for three windows. Suitable for single-instance
// deployments only.
type LocalLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	r           rate.Limit
	maxRequests int
}

func NewLocalLimiter(maxRequests int, window time.Duration) *LocalLimiter {
	l := &LocalLimiter{
		visitors:    make(map[string]*visitor),
		r:           rate.Every(window / time.Duration(maxRequests)),
		maxRequests: maxRequests,
	}

	go func() {
		expiry := window * 3
		if expiry < time.Minute {
			expiry = time.Minute
		}
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			l.mu.Lock()
			for key, v := range l.visitors {
				if time.Since(v.lastSeen) > expiry {
					delete(l.visitors, key)
				}
			}
			l.mu.Unlock()
		}
	}()

	return l
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	v, exists := l.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.r, l.maxRequests)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()

	return v.limiter.Allow(), nil
}

// Middleware limits by client IP. When the limiter itself fails (a Redis
// outage, say) the request is let through rather than blocking everyone.
func Middleware(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err == nil && !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
