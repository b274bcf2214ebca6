package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aramartialarts/portal-backend/internal/response"
)

// RateLimiter limits requests per IP on the public endpoints. With a
// Redis client it uses fixed-window counters shared across instances;
// without one it falls back to a per-process token bucket.
type RateLimiter struct {
	rdb      *redis.Client
	log      zerolog.Logger
	rate     int           // Requests per interval
	interval time.Duration // Window / refill interval

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter (e.g., 30 requests per minute).
// rdb may be nil.
func NewRateLimiter(rdb *redis.Client, log zerolog.Logger, rate int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		rdb:      rdb,
		log:      log,
		rate:     rate,
		interval: interval,
		visitors: make(map[string]*visitor),
	}

	if rdb == nil {
		// Cleanup stale visitors every minute.
		go func() {
			for range time.Tick(time.Minute) {
				rl.cleanup()
			}
		}()
	}

	return rl
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed := true
		if rl.rdb != nil {
			allowed = rl.allowRedis(c, ip)
		} else {
			allowed = rl.allowLocal(ip)
		}

		if !allowed {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

// allowRedis increments a fixed-window counter keyed by IP and window
// start. A Redis outage fails open: rejecting logins because the limiter
// backend is down would be worse than briefly not limiting.
func (rl *RateLimiter) allowRedis(c *gin.Context, ip string) bool {
	ctx := c.Request.Context()
	window := time.Now().Unix() / int64(rl.interval.Seconds())
	key := fmt.Sprintf("ratelimit:%s:%d", ip, window)

	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		rl.log.Warn().Err(err).Msg("rate limiter redis error, failing open")
		return true
	}
	if count == 1 {
		rl.rdb.Expire(ctx, key, rl.interval)
	}
	return count <= int64(rl.rate)
}

func (rl *RateLimiter) allowLocal(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{tokens: rl.rate, lastSeen: time.Now()}
		rl.visitors[ip] = v
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(v.lastSeen)
	refill := int(elapsed/rl.interval) * rl.rate
	if refill > 0 {
		v.tokens += refill
		if v.tokens > rl.rate {
			v.tokens = rl.rate
		}
		v.lastSeen = time.Now()
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if time.Since(v.lastSeen) > 3*time.Minute {
			delete(rl.visitors, ip)
		}
	}
}
