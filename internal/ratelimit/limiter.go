package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter manages rate limits for multiple clients, keyed by whatever the
// caller uses to identify them (here: the caller's client id or remote
// host). Keeps the expensive AI endpoints from being hammered. Buckets
// for clients that go quiet are reclaimed by Evict so the map does not
// grow without bound in a long-running daemon.
type Limiter struct {
	clients map[string]*client
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
}

// NewLimiter creates a new rate limiter.
// requestsPerHour: total requests allowed per hour per client
// burst: max requests in a burst
func NewLimiter(requestsPerHour int, burst int) *Limiter {
	// Convert requests per hour to requests per second
	r := rate.Limit(float64(requestsPerHour) / 3600.0)

	return &Limiter{
		clients: make(map[string]*client),
		rate:    r,
		burst:   burst,
	}
}

// GetLimiter returns the rate limiter for a specific client.
func (l *Limiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.clients[key]
	if !exists {
		c = &client{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = time.Now()

	return c.limiter
}

// Allow checks if a request is allowed for the given client.
func (l *Limiter) Allow(key string) bool {
	return l.GetLimiter(key).Allow()
}

// Tokens returns the current number of available tokens for a client.
func (l *Limiter) Tokens(key string) float64 {
	return l.GetLimiter(key).Tokens()
}

// Evict drops buckets for clients not seen within idleFor and returns the
// number removed. An evicted client that comes back simply gets a fresh
// full bucket.
func (l *Limiter) Evict(idleFor time.Duration) int {
	cutoff := time.Now().Add(-idleFor)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			evicted++
		}
	}
	return evicted
}
