// Package retry provides the single bounded retry-with-backoff primitive
// that every external call in the pipeline (Platform Client, LLM Reviewer,
// Embedding Client) wraps itself in. Keeping attempts, base delay, jitter,
// and the rate-limit/transient/fatal classification in one place is a
// design requirement (§9): "a single retry-with-backoff helper should wrap
// all external calls."
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Classification tells the retrier how to treat an error returned by the
// wrapped call.
type Classification int

const (
	// Fatal errors abort the retry loop immediately.
	Fatal Classification = iota
	// Transient errors are retried with backoff.
	Transient
	// RateLimited errors are retried like Transient ones; any Retry-After
	// delay the classifier extracted replaces the backoff delay (still capped
	// at MaxDelay).
	RateLimited
)

// ClassifyFunc inspects an error returned by the wrapped call and reports
// how the retrier should treat it, plus an optional caller-supplied delay
// override (e.g. from a Retry-After header).
type ClassifyFunc func(err error) (Classification, time.Duration)

// Policy configures a retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the computed delay to randomize, [0,1]
	Classify    ClassifyFunc
}

// DefaultClassify treats every error as Transient. Callers with richer error
// types (HTTP status codes, provider-specific quota errors) should supply
// their own ClassifyFunc.
func DefaultClassify(error) (Classification, time.Duration) {
	return Transient, 0
}

// ErrExhausted is wrapped into the final error once all attempts are spent.
var ErrExhausted = errors.New("retry attempts exhausted")

// Do runs fn, retrying on Transient/RateLimited classifications up to
// MaxAttempts times with exponential backoff, and returns immediately on a
// Fatal classification or context cancellation.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Classify == nil {
		p.Classify = DefaultClassify
	}
	if p.BaseDelay == 0 {
		p.BaseDelay = time.Second
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = 30 * time.Second
	}

	var lastErr error
	delay := p.BaseDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		class, override := p.Classify(err)
		if class == Fatal {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := delay
		if override > 0 {
			wait = override
		}
		wait = withJitter(wait, p.Jitter)
		if wait > p.MaxDelay {
			wait = p.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay *= 2
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
}

func withJitter(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	jitterRange := float64(d) * frac
	offset := (rand.Float64()*2 - 1) * jitterRange
	result := float64(d) + offset
	if result < 0 {
		result = 0
	}
	return time.Duration(result)
}
