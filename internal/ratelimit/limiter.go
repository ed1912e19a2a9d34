package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ProviderLimiter paces outgoing pricing calls, one token bucket per provider.
type ProviderLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults RateLimitConfig
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultConfig allows one call per second, which keeps a sequential scan
// well under the pricing API's per-second ceiling.
func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         1,
	}
}

// FromInterval builds a config that spaces calls at least d apart. A
// non-positive interval disables pacing.
func FromInterval(d time.Duration) RateLimitConfig {
	if d <= 0 {
		return RateLimitConfig{RequestsPerSecond: float64(rate.Inf), BurstSize: 1}
	}
	return RateLimitConfig{RequestsPerSecond: float64(rate.Every(d)), BurstSize: 1}
}

func NewProviderLimiter(config RateLimitConfig) *ProviderLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	return &ProviderLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: config,
	}
}

func NewProviderLimiterWithDefaults() *ProviderLimiter {
	return NewProviderLimiter(DefaultConfig())
}

func (p *ProviderLimiter) GetLimiter(provider string) *rate.Limiter {
	p.mu.RLock()
	limiter, exists := p.limiters[provider]
	p.mu.RUnlock()

	if exists {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if limiter, exists = p.limiters[provider]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(p.defaults.RequestsPerSecond), p.defaults.BurstSize)
	p.limiters[provider] = limiter
	return limiter
}

func (p *ProviderLimiter) SetProviderLimit(provider string, rps float64, burst int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.limiters[provider] = rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until the provider may be called again or ctx is done.
func (p *ProviderLimiter) Wait(ctx context.Context, provider string) error {
	return p.GetLimiter(provider).Wait(ctx)
}
