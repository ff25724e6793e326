// Package retry runs optimistic read-modify-write units again when they lose
// a version race, and gives up on everything else.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/inventrack/backend/internal/domain/shared"
)

// Policy bounds the conflict retry loop
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy returns five attempts with a 10ms..200ms exponential backoff
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

// NotifyFunc is told about every conflict that will be retried
type NotifyFunc func(attempt int, err error, wait time.Duration)

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// OnConflict runs fn until it succeeds, fails with anything other than a
// CONCURRENCY_CONFLICT, or the policy runs out of attempts.
//
// Business errors come back unchanged. An exhausted loop or a cancelled
// context comes back as UNKNOWN: the caller must re-read state before
// submitting again.
func OnConflict(ctx context.Context, p Policy, notify NotifyFunc, fn func(ctx context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if shared.IsConcurrencyConflict(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(attempt, err, wait)
		}
	}

	err := backoff.RetryNotify(op, p.backOff(ctx), onRetry)
	switch {
	case err == nil:
		return nil
	case shared.IsConcurrencyConflict(err):
		return shared.ErrUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return shared.ErrUnknown
	default:
		return err
	}
}
