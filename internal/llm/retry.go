package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/capitalize-ai/callcenter-agent/internal/errs"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
)

// RetryPolicy bounds retries around provider calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is the initial backoff interval.
	BaseDelay time.Duration
	// MaxDelay caps the backoff interval.
	MaxDelay time.Duration
}

// DefaultRetryPolicy mirrors the provider contract: 3 attempts with
// exponential backoff between 4s and 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 4 * time.Second, MaxDelay: 10 * time.Second}
}

// Retrying wraps a Client with a bounded retry policy. Only transient
// failures (rate limit, timeout) are retried; the last error is
// surfaced unmodified once attempts are exhausted.
type Retrying struct {
	client Client
	policy RetryPolicy
	logger *logger.Logger
}

// WithRetry wraps client with the given policy.
func WithRetry(client Client, policy RetryPolicy, log *logger.Logger) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrying{client: client, policy: policy, logger: log}
}

// Name returns the wrapped provider name.
func (r *Retrying) Name() string {
	return r.client.Name()
}

// Models returns the wrapped provider models.
func (r *Retrying) Models() []string {
	return r.client.Models()
}

// Complete sends a completion request, retrying transient failures.
func (r *Retrying) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.policy.BaseDelay
	bo.MaxInterval = r.policy.MaxDelay
	bo.MaxElapsedTime = 0

	var resp *CompletionResponse
	attempt := 0

	operation := func() error {
		attempt++
		var err error
		resp, err = r.client.Complete(ctx, req)
		if err == nil {
			return nil
		}
		if !errs.IsRetryable(err) || attempt >= r.policy.MaxAttempts {
			return backoff.Permanent(err)
		}
		r.logger.Warn("retrying llm call",
			zap.Int("attempt", attempt),
			zap.String("kind", string(errs.KindOf(err))),
		)
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}
