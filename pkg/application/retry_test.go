package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

func TestRetryTransientSucceedsAfterConflicts(t *testing.T) {
	calls := 0
	err := RetryTransient(context.Background(), RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}, NopLogger{}, "create booking", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return domain.TransientError{Err: errors.New("serialization failure")}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryTransientSurfacesConflictWhenExhausted(t *testing.T) {
	calls := 0
	err := RetryTransient(context.Background(), RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}, NopLogger{}, "cancel booking", func(ctx context.Context) error {
		calls++
		return domain.TransientError{Err: errors.New("deadlock detected")}
	})

	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.GreaterOrEqual(t, calls, 3)
	assert.LessOrEqual(t, calls, 4)
}

func TestRetryTransientDoesNotRetryDomainErrors(t *testing.T) {
	calls := 0
	err := RetryTransient(context.Background(), RetryPolicy{MaxRetries: 5, Backoff: time.Millisecond}, NopLogger{}, "create booking", func(ctx context.Context) error {
		calls++
		return domain.InsufficientCapacityError{RideID: "r1", Requested: 3, Available: 1}
	})

	assert.True(t, domain.IsInsufficientCapacity(err))
	assert.Equal(t, 1, calls)
}

func TestRetryTransientStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryTransient(ctx, RetryPolicy{MaxRetries: 5}, NopLogger{}, "create booking", func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
