package ratelimiter

import (
	"net/http"
	"sync"
	"time"
)

const defaultSourceHeader = "X-User-ID"

// Limiter throttles request sources with a token bucket per source.
type Limiter interface {
	Allow(sourceKey string) bool
	Remaining(sourceKey string) int
	GetMaxBurst() int
	GetSourceKey(r *http.Request) string
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

type RateLimiter struct {
	ratePerSecond float64
	maxBurst      int
	sourceHeader  string

	mu      sync.Mutex
	buckets map[string]*bucket
}

type Options struct {
	MaxRatePerSecond int
	MaxBurst         int
	SourceHeaderKey  string
}

func New(options Options) Limiter {
	if options.MaxBurst <= 0 {
		options.MaxBurst = options.MaxRatePerSecond
	}
	if options.SourceHeaderKey == "" {
		options.SourceHeaderKey = defaultSourceHeader
	}

	return &RateLimiter{
		ratePerSecond: float64(options.MaxRatePerSecond),
		maxBurst:      options.MaxBurst,
		sourceHeader:  options.SourceHeaderKey,
		buckets:       make(map[string]*bucket),
	}
}

func (rl *RateLimiter) Allow(sourceKey string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b := rl.refill(sourceKey)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) Remaining(sourceKey string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return int(rl.refill(sourceKey).tokens)
}

func (rl *RateLimiter) GetMaxBurst() int {
	return rl.maxBurst
}

// GetSourceKey keys the bucket on the authenticated user when the identity
// header is present, falling back to the remote address.
func (rl *RateLimiter) GetSourceKey(r *http.Request) string {
	if key := r.Header.Get(rl.sourceHeader); key != "" {
		return key
	}
	return r.RemoteAddr
}

// refill must be called with rl.mu held.
func (rl *RateLimiter) refill(sourceKey string) *bucket {
	now := time.Now()

	b, ok := rl.buckets[sourceKey]
	if !ok {
		b = &bucket{tokens: float64(rl.maxBurst), lastFill: now}
		rl.buckets[sourceKey] = b
		return b
	}

	elapsed := now.Sub(b.lastFill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * rl.ratePerSecond
		if b.tokens > float64(rl.maxBurst) {
			b.tokens = float64(rl.maxBurst)
		}
		b.lastFill = now
	}
	return b
}
