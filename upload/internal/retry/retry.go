// Package retry provides a reusable retry combinator with deterministic
// exponential backoff. The delay schedule is a pure function of the policy
// and the attempt index; there is no jitter, so failure timing is exactly
// reproducible.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/emergent-lab/flow-extension/upload/uploadtypes"
)

// Do runs op up to policy.MaxAttempts times, sleeping Delay(policy, i)
// before the i-th retry. It returns nil on the first success and the last
// attempt's error once the budget is exhausted. Intermediate failures are
// not reported to the caller.
//
// The backoff sleep honors ctx: a canceled context stops waiting and
// returns the cancellation joined with the last attempt's error.
func Do(ctx context.Context, policy uploadtypes.RetryPolicy, op func(context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, Delay(policy, attempt-1)); err != nil {
				return errors.Join(err, lastErr)
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
	}

	return lastErr
}

// Delay returns the pause before the given 0-based retry:
// min(BaseDelay * 2^retry, MaxDelay).
func Delay(policy uploadtypes.RetryPolicy, retry int) time.Duration {
	if policy.BaseDelay <= 0 {
		return 0
	}

	delay := policy.BaseDelay
	for i := 0; i < retry; i++ {
		delay *= 2
		if policy.MaxDelay > 0 && delay >= policy.MaxDelay {
			return policy.MaxDelay
		}
	}
	if policy.MaxDelay > 0 && delay > policy.MaxDelay {
		return policy.MaxDelay
	}
	return delay
}

// sleep pauses for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
