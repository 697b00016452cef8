package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cartwheel-app/cartwheel/internal/common"
)

// resilientClient wraps a provider client with a rate limiter, per-call
// retries and a circuit breaker. A tripped breaker surfaces as
// ErrUpstreamUnavailable so callers select the fallback path the same way
// they would for a dead upstream.
type resilientClient struct {
	inner     Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[string]
	retryOpts common.RetryOptions
}

func newResilientClient(inner Client, cfg Config) Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "generator",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Only upstream failures should trip the breaker.
			return err == nil ||
				(!errors.Is(err, common.ErrUpstreamUnavailable) && !errors.Is(err, common.ErrRateLimit))
		},
	})

	return &resilientClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		breaker: breaker,
		retryOpts: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Generate waits for rate-limit headroom, then calls the provider through the
// circuit breaker, retrying transient failures. The breaker sees one outcome
// per Generate call, after the retries have run their course.
func (c *resilientClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reply, err := c.breaker.Execute(func() (string, error) {
		var response string
		retryErr := common.WithRetry(ctx, func() error {
			var genErr error
			response, genErr = c.inner.Generate(ctx, prompt)
			if genErr != nil {
				return &common.RetryableError{Err: genErr, Retryable: common.IsRetryable(genErr)}
			}
			return nil
		}, c.retryOpts)
		return response, retryErr
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: circuit breaker open", common.ErrUpstreamUnavailable)
	}
	return reply, err
}
