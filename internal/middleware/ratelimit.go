package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitMessage is sent with every 429 response.
const RateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimiter counts requests per client IP in fixed windows.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*clientWindow

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientWindow struct {
	start    time.Time
	requests int
}

// NewRateLimiter allows limit requests per window for each client and
// starts a goroutine that drops expired entries. Call Stop to end it.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:       limit,
		window:      window,
		now:         time.Now,
		clients:     make(map[string]*clientWindow),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupExpired()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanupExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, c := range rl.clients {
		if now.Sub(c.start) >= rl.window {
			delete(rl.clients, ip)
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Allow records a request from clientIP and reports whether it is within
// the limit, how many requests remain and when the window resets.
func (rl *RateLimiter) Allow(clientIP string) (ok bool, remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, exists := rl.clients[clientIP]
	if !exists || now.Sub(c.start) >= rl.window {
		c = &clientWindow{start: now}
		rl.clients[clientIP] = c
	}

	c.requests++
	reset = c.start.Add(rl.window)
	remaining = max(rl.limit-c.requests, 0)
	return c.requests <= rl.limit, remaining, reset
}

// Middleware rejects over-limit requests with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, reset := rl.Allow(ClientIP(r))

		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(rl.limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		resetIn := int(math.Ceil(reset.Sub(rl.now()).Seconds()))
		h.Set("RateLimit-Reset", strconv.Itoa(resetIn))

		if !ok {
			h.Set("Retry-After", strconv.Itoa(resetIn))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": RateLimitMessage})
			return
		}

		next.ServeHTTP(w, r)
	})
}
