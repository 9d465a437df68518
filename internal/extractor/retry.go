package extractor

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"go.uber.org/zap"
)

type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(err error) bool
}

// DefaultRetryPolicy makes three attempts, waiting base×attempt between them,
// and retries only overloaded or unavailable upstream answers.
func DefaultRetryPolicy(maxAttempts int, base time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     LinearBackoff(base),
		Retryable:   IsTransient,
	}
}

func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

type retrying struct {
	next   Extractor
	policy RetryPolicy
	logger logger.ZapLogger
}

// WithRetry wraps next so failed calls are repeated according to policy.
func WithRetry(next Extractor, policy RetryPolicy, log logger.ZapLogger) Extractor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &retrying{next: next, policy: policy, logger: log}
}

func (r *retrying) Extract(ctx context.Context, audio []byte, mimeType string) ([]model.ProductDraft, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		drafts, err := r.next.Extract(ctx, audio, mimeType)
		if err == nil {
			return drafts, nil
		}
		lastErr = err

		r.logger.Warn("extraction attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.policy.MaxAttempts),
			zap.Error(err),
		)
		if attempt == r.policy.MaxAttempts || r.policy.Retryable == nil || !r.policy.Retryable(err) {
			break
		}

		var delay time.Duration
		if r.policy.Backoff != nil {
			delay = r.policy.Backoff(attempt)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}
