// Package retry re-runs upstream calls with exponential backoff when the
// failure is classified as transient.
package retry

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Classifier reports whether an error is worth retrying.
type Classifier func(error) bool

// Policy holds retry settings. It carries no state between calls, so one
// Policy value can be shared by every call site.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the wait before the first retry. It doubles per attempt.
	BaseDelay  time.Duration
	Classifier Classifier
}

func DefaultPolicy(classifier Classifier) Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		Classifier: classifier,
	}
}

// Backoff returns the wait before retry number attempt (zero based).
func (p Policy) Backoff(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// Do runs fn until it succeeds, fails with an error the classifier rejects,
// or the retries are used up. The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Classifier == nil || !p.Classifier(err) || attempt >= p.MaxRetries {
			return err
		}

		delay := p.Backoff(attempt)
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("retrying upstream call")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Execute is Do for operations that return a value.
func Execute[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
