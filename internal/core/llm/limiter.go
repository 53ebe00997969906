package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
)

type rateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewRateLimited throttles calls to next at rps requests per second.
// A non-positive rps disables throttling.
func NewRateLimited(next Completer, rps float64) Completer {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &rateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, rateLimiterBurst),
	}
}

func (r *rateLimited) Complete(ctx context.Context, req Request) (Completion, error) {
	start := time.Now()

	if err := r.limiter.Wait(ctx); err != nil {
		return Completion{}, fmt.Errorf(errRateLimiter, err)
	}

	observability.LLMRateLimitWaitSeconds.Observe(time.Since(start).Seconds())

	return r.next.Complete(ctx, req)
}
