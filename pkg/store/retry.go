package store

import (
	"context"
	"time"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/observability"
)

// Default retry policy used when the configuration leaves it unset.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 200 * time.Millisecond
)

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors marked with [Retryable]; other errors are returned
// immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
func Retry(ctx context.Context, op string, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			observability.Store().OnRetry(ctx, op, i+1, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

type retryStore struct {
	next     Store
	attempts int
	delay    time.Duration
}

// WithRetry wraps s so every call is retried on transient failures.
// Non-positive attempts or delay fall back to the defaults.
func WithRetry(s Store, attempts int, delay time.Duration) Store {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &retryStore{next: s, attempts: attempts, delay: delay}
}

func (r *retryStore) Read(ctx context.Context, key string) (contract.Document, error) {
	var doc contract.Document
	err := Retry(ctx, OpRead, r.attempts, r.delay, func() error {
		var err error
		doc, err = r.next.Read(ctx, key)
		return err
	})
	return doc, err
}

func (r *retryStore) UpsertSignature(ctx context.Context, key string, slot contract.Slot, image contract.Blob, at time.Time) error {
	return Retry(ctx, OpUpsertSignature, r.attempts, r.delay, func() error {
		return r.next.UpsertSignature(ctx, key, slot, image, at)
	})
}

func (r *retryStore) ClearSignature(ctx context.Context, key string, slot contract.Slot) error {
	return Retry(ctx, OpClearSignature, r.attempts, r.delay, func() error {
		return r.next.ClearSignature(ctx, key, slot)
	})
}

func (r *retryStore) SetAccepted(ctx context.Context, key string, at time.Time) error {
	return Retry(ctx, OpSetAccepted, r.attempts, r.delay, func() error {
		return r.next.SetAccepted(ctx, key, at)
	})
}

func (r *retryStore) Close() error { return r.next.Close() }
