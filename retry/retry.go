// Package retry wraps capped exponential backoff for the short external
// calls this bot makes: storage transitions and Telegram API requests.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	initialInterval = 200 * time.Millisecond
	maxInterval     = 5 * time.Second
)

// Do runs op, retrying transient failures with capped exponential backoff
// up to maxRetries additional attempts. Errors wrapped by Permanent stop
// the retries immediately; context cancellation stops them too.
func Do(ctx context.Context, maxRetries uint64, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialInterval
	b.MaxInterval = maxInterval
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
