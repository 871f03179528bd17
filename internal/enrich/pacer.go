package enrich

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces classification calls at least delay apart. The first call
// proceeds immediately.
type pacer struct {
	limiter *rate.Limiter
}

func newPacer(delay time.Duration) *pacer {
	return &pacer{limiter: rate.NewLimiter(limitFor(delay), 1)}
}

// limitFor maps a delay to a limiter rate; non-positive delays disable pacing.
func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

func (p *pacer) wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

func (p *pacer) setDelay(delay time.Duration) {
	p.limiter.SetLimit(limitFor(delay))
}
