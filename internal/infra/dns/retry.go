package dns

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application/errs"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/classify"
	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy applies to rate-limited registrar calls only.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	MaxJitter  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxJitter:  time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	var b backoff.BackOff = &jitterBackOff{BackOff: exp, max: p.MaxJitter}
	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
}

type jitterBackOff struct {
	backoff.BackOff
	max time.Duration
}

func (j *jitterBackOff) NextBackOff() time.Duration {
	next := j.BackOff.NextBackOff()
	if next == backoff.Stop || j.max <= 0 {
		return next
	}
	return next + rand.N(j.max)
}

// Retry runs fn, retrying with exponential backoff while it fails with a
// rate-limit error. Any other error is returned after the first attempt; a
// rate limit that outlasts the policy is returned as errs.RetryableError.
func Retry[T any](ctx context.Context, p RetryPolicy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		var err error
		result, err = fn(ctx)
		if err == nil {
			return nil
		}
		if classify.IsRateLimited(err) {
			return err
		}
		return backoff.Permanent(err)
	}, p.backOff(ctx), func(err error, wait time.Duration) {
		slog.Warn("registrar rate limited, backing off", "op", op, "attempt", attempt, "wait", wait, "err", err)
	})
	if err != nil && classify.IsRateLimited(err) {
		return result, errs.RetryableError{Err: err}
	}
	return result, err
}
