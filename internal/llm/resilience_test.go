package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartwheel-app/cartwheel/internal/common"
)

type scriptedClient struct {
	err   error
	reply string
	calls int
}

func (s *scriptedClient) Generate(context.Context, string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestResilientClientPassesThrough(t *testing.T) {
	inner := &scriptedClient{reply: "ok"}
	client := newResilientClient(inner, Config{RequestsPerMinute: 6000})

	reply, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, 1, inner.calls)
}

func TestResilientClientBreakerTripsOnUpstreamFailures(t *testing.T) {
	inner := &scriptedClient{err: fmt.Errorf("%w: dead", common.ErrUpstreamUnavailable)}
	client := newResilientClient(inner, Config{RequestsPerMinute: 6000})
	ctx := context.Background()

	// Five consecutive upstream failures trip the breaker
	for i := 0; i < 5; i++ {
		_, err := client.Generate(ctx, "prompt")
		assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	}
	assert.Equal(t, 5, inner.calls)

	// Next call short-circuits without reaching the provider
	_, err := client.Generate(ctx, "prompt")
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	assert.Equal(t, 5, inner.calls, "open breaker must not call the provider")
}

func TestResilientClientNonUpstreamErrorsDoNotTrip(t *testing.T) {
	inner := &scriptedClient{err: errors.New("bad prompt")}
	client := newResilientClient(inner, Config{RequestsPerMinute: 6000})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := client.Generate(ctx, "prompt")
		require.Error(t, err)
	}
	assert.Equal(t, 10, inner.calls, "application errors keep flowing to the provider")
}

// flakyClient rate-limits the first failures calls, then succeeds.
type flakyClient struct {
	failures int
	reply    string
	calls    int
}

func (f *flakyClient) Generate(context.Context, string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", fmt.Errorf("%w: slow down", common.ErrRateLimit)
	}
	return f.reply, nil
}

func fastRetries(t *testing.T, client Client) *resilientClient {
	t.Helper()
	rc, ok := client.(*resilientClient)
	require.True(t, ok)
	rc.retryOpts = common.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
	}
	return rc
}

func TestResilientClientRetriesRateLimit(t *testing.T) {
	inner := &flakyClient{failures: 2, reply: "ok"}
	client := fastRetries(t, newResilientClient(inner, Config{RequestsPerMinute: 6000}))

	reply, err := client.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, 3, inner.calls, "rate-limited attempts are retried")
}

func TestResilientClientRetryExhaustionKeepsClassification(t *testing.T) {
	inner := &scriptedClient{err: fmt.Errorf("%w: still throttled", common.ErrRateLimit)}
	client := fastRetries(t, newResilientClient(inner, Config{RequestsPerMinute: 6000}))

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.ErrorIs(t, err, common.ErrRateLimit, "the final error must stay classifiable")
	assert.Equal(t, 3, inner.calls)
}

func TestResilientClientDoesNotRetryNonTransientErrors(t *testing.T) {
	inner := &scriptedClient{err: errors.New("bad prompt")}
	client := fastRetries(t, newResilientClient(inner, Config{RequestsPerMinute: 6000}))

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls, "non-transient failures fail fast")
}

func TestResilientClientHonorsContextCancellation(t *testing.T) {
	inner := &scriptedClient{reply: "ok"}
	// One request per minute with burst 1: the second call must wait, and a
	// canceled context aborts the wait.
	client := newResilientClient(inner, Config{RequestsPerMinute: 1})

	ctx := context.Background()
	_, err := client.Generate(ctx, "prompt")
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = client.Generate(canceled, "prompt")
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
