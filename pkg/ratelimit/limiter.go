package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing feed API requests
type Limiter interface {
	// Wait blocks until the next request may be sent or ctx is done
	Wait(ctx context.Context) error
}

// Pacer spreads requests evenly over a minute using a token bucket
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing requestsPerMinute requests per minute.
// A non-positive value disables pacing.
func NewPacer(requestsPerMinute int) *Pacer {
	if requestsPerMinute <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &Pacer{limiter: rate.NewLimiter(rate.Every(every), 1)}
}

// Wait blocks until a request slot is available
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
