package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tripcart/config"
	"tripcart/utils"
)

// rateLimiterStore holds a map of client keys to their rate limiters. The
// session id is preferred as the key: anonymous carts are the abuse vector
// here, and a bad actor rotating session ids still falls back to its IP.
type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

var limiterStore = &rateLimiterStore{
	limiters: make(map[string]*rate.Limiter),
}

// getLimiter returns the rate limiter for a given client key, creating one if
// it doesn't exist.
func (s *rateLimiterStore) getLimiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[key]
	if !exists {
		perMin := config.AppConfig.MaxRequestsPerMin
		if perMin <= 0 {
			perMin = 100
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin)
		s.limiters[key] = limiter
	}
	return limiter
}

// RateLimitMiddleware limits requests per session id, falling back to the
// client IP when no session header is present.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := zap.L()
		key := c.GetHeader(utils.SessionHeader)
		if key == "" {
			key = getClientIP(c)
		}
		limiter := limiterStore.getLimiter(key)
		if !limiter.Allow() {
			logger.Warn("Rate limit exceeded", zap.String("client", key))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
