package application

import (
	"context"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"

	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// RetryPolicy bounds how often a transient write conflict is retried.
type RetryPolicy struct {
	MaxRetries uint
	Backoff    time.Duration
}

// RetryTransient runs fn until it succeeds, fails with a non-transient error,
// or the policy is exhausted. Exhaustion surfaces as domain.ConflictError.
func RetryTransient(ctx context.Context, policy RetryPolicy, logger AppLogger, operation string, fn func(ctx context.Context) error) error {
	var result error
	err := retry.Retry(
		func(attempt uint) error {
			if ctx.Err() != nil {
				result = ctx.Err()
				return nil
			}
			result = fn(ctx)
			if domain.IsTransient(result) {
				LogDebug(ctx, logger, "transient write conflict", map[string]interface{}{
					"operation": operation,
					"attempt":   attempt,
					"error":     result.Error(),
				})
				return result
			}
			return nil
		},
		strategy.Limit(policy.MaxRetries+1),
		strategy.Backoff(backoff.Linear(policy.Backoff)),
	)
	if err != nil {
		LogError(ctx, logger, "retries exhausted", err, map[string]interface{}{"operation": operation})
		return domain.ConflictError{Msg: operation + ": concurrent update conflict, retry later", Err: err}
	}
	return result
}
