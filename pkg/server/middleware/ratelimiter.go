package middleware

import (
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/milan604/travelplanner-client/pkg/apperr"
	"github.com/milan604/travelplanner-client/pkg/envelope"
)

// RateLimitConfig encapsulates both configuration and runtime state for per-IP rate limiting.
type RateLimitConfig struct {
	Enabled         bool
	RPS             float64
	Burst           int
	CleanupInterval time.Duration

	limit   rate.Limit
	mu      sync.Mutex
	clients map[string]*client
	stop    chan struct{}
	once    sync.Once
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimitConfig creates a new RateLimitConfig and initializes runtime state.
// With a positive cleanupInterval, limiters idle for longer than it are
// dropped until Stop is called.
func NewRateLimitConfig(enabled bool, rps float64, burst int, cleanupInterval time.Duration) *RateLimitConfig {
	rl := &RateLimitConfig{
		Enabled:         enabled,
		RPS:             rps,
		Burst:           burst,
		CleanupInterval: cleanupInterval,
		limit:           rate.Limit(rps),
		clients:         make(map[string]*client),
		stop:            make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go rl.cleanupLoop()
	}
	return rl
}

// Stop ends the cleanup goroutine.
func (rl *RateLimitConfig) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// getLimiter returns the rate limiter for the given IP, creating one if needed.
func (rl *RateLimitConfig) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cl, ok := rl.clients[ip]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(rl.limit, rl.Burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

func (rl *RateLimitConfig) cleanupLoop() {
	t := time.NewTicker(rl.CleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-t.C:
			rl.evictIdle(now.Add(-rl.CleanupInterval))
		}
	}
}

func (rl *RateLimitConfig) evictIdle(before time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, cl := range rl.clients {
		if cl.lastSeen.Before(before) {
			delete(rl.clients, ip)
		}
	}
}

// getRemoteIP attempts to obtain a reliable client IP
func getRemoteIP(c *gin.Context) string {
	if xff := c.Request.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err == nil {
		return host
	}
	return c.ClientIP()
}

// Middleware returns the gin middleware enforcing per-IP rate limits.
// Rejected requests get a rate_limited envelope with HTTP 429.
func (rl *RateLimitConfig) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Enabled {
			c.Next()
			return
		}
		if !rl.getLimiter(getRemoteIP(c)).Allow() {
			envelope.Abort(c, apperr.New(apperr.ErrorCodeRateLimited))
			return
		}
		c.Next()
	}
}
