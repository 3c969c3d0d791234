package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"atspro/internal/errors"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per caller key ("user:<id>" or "ip:<addr>")
// and evicts buckets that stay idle for limiterIdleTTL.
type RateLimiter struct {
	mu       sync.Mutex
	entries  map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	rejected int64

	done     chan struct{}
	stopOnce sync.Once
	logger   *errors.Logger
}

// NewRateLimiter allows requestsPerMin per caller with the given burst.
func NewRateLimiter(requestsPerMin int, burstCapacity int, logger *errors.Logger) *RateLimiter {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if burstCapacity < 1 {
		burstCapacity = 1
	}

	rl := &RateLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(requestsPerMin) / 60.0),
		burst:   burstCapacity,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go rl.evictLoop(limiterIdleTTL)
	return rl
}

func (rl *RateLimiter) entry(key string, now time.Time) *limiterEntry {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.entries[key] = e
	}
	e.lastSeen = now
	return e
}

// Allow spends one token for key. When the bucket is empty it returns false and
// the time until the next token.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()
	e := rl.entry(key, now)

	res := e.limiter.ReserveN(now, 1)
	if !res.OK() {
		rl.countRejection()
		return false, time.Minute
	}
	delay := res.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	res.CancelAt(now)
	rl.countRejection()
	return false, delay
}

func (rl *RateLimiter) countRejection() {
	rl.mu.Lock()
	rl.rejected++
	rl.mu.Unlock()
}

// GetStats reports limiter state for /stats.
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"active_limiters":   len(rl.entries),
		"requests_per_min":  float64(rl.limit) * 60.0,
		"burst_capacity":    rl.burst,
		"rejected_requests": rl.rejected,
	}
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.evictIdle(now, every)
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time, idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	evicted := 0
	for key, e := range rl.entries {
		if now.Sub(e.lastSeen) > idle {
			delete(rl.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		rl.logger.Debug("Evicted idle rate limiters", "evicted", evicted, "remaining", len(rl.entries))
	}
	return evicted
}

// Close stops eviction. Safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// rateLimitMiddleware rejects callers over their budget with 429 and a Retry-After hint.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := s.getRateLimitKey(r)
			if key == "" {
				next(w, r)
				return
			}

			ok, wait := s.RateLimiter.Allow(key)
			if !ok {
				s.Logger.Info("Rate limit exceeded", "key", key, "route", r.Pattern, "retry_after", wait)
				s.Observability.RecordRateLimitHit(r.Context(), r.Pattern)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				s.writeError(w, r, errors.NewValidationError(errors.ErrCodeRateLimited, "Too many requests. Please slow down.", nil))
				return
			}

			next(w, r)
		}
	}
}

// getRateLimitKey keys signed-in users by id when ByUser is set and everyone else
// by client IP when ByIP is set. An empty key means the request is not limited.
func (s *Server) getRateLimitKey(r *http.Request) string {
	if s.RateLimit.ByUser && s.Tokens != nil {
		if token := bearerToken(r); token != "" {
			if claims, err := s.Tokens.Parse(token); err == nil {
				return "user:" + claims.Subject
			}
		}
	}
	if s.RateLimit.ByIP {
		return "ip:" + getClientIP(r)
	}
	return ""
}

// getClientIP resolves the caller address, trusting X-Forwarded-For then X-Real-IP.
func getClientIP(r *http.Request) string {
	for ip := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if ip = strings.TrimSpace(ip); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
