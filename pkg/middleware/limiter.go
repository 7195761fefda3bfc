package middleware

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"corridor/pkg/httpx"
	"corridor/pkg/logger"
	"corridor/pkg/request"
	"corridor/pkg/utils"
)

// RateLimitConfig sets the per-caller token bucket. Zero values fall
// back to 5 rps with a burst of 10.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type limiterPool struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	cfg RateLimitConfig
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps := p.cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	burst := p.cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	l := rate.NewLimiter(rate.Limit(rps), burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

// RateLimit enforces a per-caller rate, keyed by the authenticated API
// key when Auth ran earlier in the chain and by client IP otherwise.
func RateLimit(cfg RateLimitConfig) Middleware {
	pool := &limiterPool{cfg: cfg}
	return func(next httpx.Handler) httpx.Handler {
		return httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
			key := clientIP(r.RemoteAddr)
			if id, ok := IdentityFrom(r); ok && id.Key != "" {
				key = id.Key
			}
			if !pool.Allow(key) {
				logger.Warn("rate_limited", "path", r.URL.Path, "key", key)
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.Serve(w, r)
		})
	}
}
