package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default limiter values
const (
	// DefaultRPS is the default per-client request rate.
	DefaultRPS = 5.0
	// DefaultBurst is the default per-client burst size.
	DefaultBurst = 10
	// DefaultIdleTTL is how long an unused client limiter is kept.
	DefaultIdleTTL = 10 * time.Minute
)

// RateLimiterConfig defines rate limiting behavior.
type RateLimiterConfig struct {
	// RPS is requests per second per client (0 = unlimited)
	RPS float64
	// Burst is the token bucket size per client
	Burst int
	// IdleTTL controls when idle client limiters are evicted
	IdleTTL time.Duration
}

// DefaultRateLimiterConfig returns sensible defaults.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RPS:     DefaultRPS,
		Burst:   DefaultBurst,
		IdleTTL: DefaultIdleTTL,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter manages per-client request rate limiting using a token bucket per key.
// It is safe for concurrent use.
type RateLimiter struct {
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	config   RateLimiterConfig
	now      func() time.Time
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}

	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		config:   cfg,
		now:      time.Now,
	}
}

// Allow reports whether a request from key may proceed now.
// A nil limiter or a zero rate allows everything.
func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil || rl.config.RPS <= 0 {
		return true
	}
	return rl.getLimiter(key).Allow()
}

// getLimiter returns the limiter for key, creating one if necessary.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evictIdle(now)

	if cl, ok := rl.limiters[key]; ok {
		cl.lastSeen = now
		return cl.limiter
	}

	limiter := rate.NewLimiter(rate.Limit(rl.config.RPS), rl.config.Burst)
	rl.limiters[key] = &clientLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

// evictIdle drops limiters not used within IdleTTL. Caller holds rl.mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > rl.config.IdleTTL {
			delete(rl.limiters, key)
		}
	}
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
