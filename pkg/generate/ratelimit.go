package generate

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/bastiangx/recomserve/pkg/suggest"
)

// RateLimited caps how often the wrapped generator is called. A call that
// cannot be admitted before its context ends fails instead of queueing.
type RateLimited struct {
	next    suggest.Generator
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls on average with bursts up to burst
func NewRateLimited(next suggest.Generator, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *RateLimited) Generate(ctx context.Context, prefix string, count int) ([]string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limited: %w", suggest.ErrAdapterUnavailable, err)
	}
	return r.next.Generate(ctx, prefix, count)
}
