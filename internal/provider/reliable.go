package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Reliable wraps a provider with a circuit breaker and a fallback model.
// When the primary call fails (or the breaker is open), the same request is
// retried once against the fallback model on the same backend. This mirrors
// the executor-with-fallback behavior: gpt-4 first, gpt-3.5-turbo on failure.
type Reliable struct {
	inner         Provider
	fallbackModel string
	breaker       *gobreaker.CircuitBreaker[*Response]
}

func NewReliable(inner Provider, fallbackModel string) *Reliable {
	settings := gobreaker.Settings{
		Name:    inner.Name() + "-chat",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Reliable{
		inner:         inner,
		fallbackModel: fallbackModel,
		breaker:       gobreaker.NewCircuitBreaker[*Response](settings),
	}
}

func (r *Reliable) Name() string {
	return r.inner.Name()
}

func (r *Reliable) Chat(ctx context.Context, messages []Message, opts ChatOptions) (*Response, error) {
	resp, err := r.breaker.Execute(func() (*Response, error) {
		return r.inner.Chat(ctx, messages, opts)
	})
	if err == nil {
		return resp, nil
	}

	if r.fallbackModel == "" || r.fallbackModel == opts.Model {
		return nil, err
	}

	fbOpts := opts
	fbOpts.Model = r.fallbackModel
	fbResp, fbErr := r.inner.Chat(ctx, messages, fbOpts)
	if fbErr != nil {
		return nil, fmt.Errorf("primary and fallback both failed: %v; %w", err, fbErr)
	}
	return fbResp, nil
}

func (r *Reliable) Embed(ctx context.Context, text string) ([]float32, error) {
	return r.inner.Embed(ctx, text)
}

// Unwrap exposes the wrapped provider so optional capabilities (speech,
// vision, batch embedding) remain reachable.
func (r *Reliable) Unwrap() Provider {
	return r.inner
}
