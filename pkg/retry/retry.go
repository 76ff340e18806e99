// Package retry implements the store retry policy: a transient failure is
// retried at most once after a short pause, anything else fails immediately.
package retry

import (
	"context"
	"errors"
	"time"

	"swift-ai-market/pkg/apperr"

	"github.com/cenkalti/backoff/v5"
)

const DefaultWait = 100 * time.Millisecond

// Once runs op, and runs it a second time only if the first attempt failed
// with apperr.ErrStoreUnavailable.
func Once[T any](ctx context.Context, wait time.Duration, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !errors.Is(err, apperr.ErrStoreUnavailable) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(wait)),
		backoff.WithMaxTries(2),
	)
}

// Do is Once for operations without a result.
func Do(ctx context.Context, wait time.Duration, op func() error) error {
	_, err := Once(ctx, wait, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
