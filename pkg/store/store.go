// Package store defines the persistence boundary for the contract record.
//
// A [Store] upserts and clears individual fields of one logical record:
//
//	{ id, signatureA, signatureA_at, signatureB, signatureB_at, accepted, accepted_at }
//
// Writes touch only the fields they name, so two parties signing at the same
// time never overwrite each other. There are no transactions across fields and
// the last write to a field wins.
//
// # Backends
//
// Each backend lives in its own subpackage:
//   - memory: map guarded by a mutex, for tests and ephemeral servers
//   - file: one JSON document per key, the CLI default
//   - sqlite: modernc.org/sqlite with embedded migrations
//   - postgres: lib/pq with embedded migrations
//   - redis: one hash per key
//   - mongo: one document per key
//
// # Decorators
//
// [WithRetry] retries transient backend failures with doubling backoff.
// [WithHooks] reports every call through the observability store hooks.
//
// # Errors
//
// Read returns [ErrNotFound] when no record exists for the key. Every other
// failure is a STORE_ERROR wrapping the backend cause.
package store

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"io"
	"net"
	"time"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
)

// ErrNotFound is returned by Read when the record has never been written.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "contract record not found")

// Store persists the contract record.
type Store interface {
	// Read loads the record stored under key.
	Read(ctx context.Context, key string) (contract.Document, error)

	// UpsertSignature sets the image and signed-at fields of slot, creating
	// the record if needed. Other fields are untouched.
	UpsertSignature(ctx context.Context, key string, slot contract.Slot, image contract.Blob, at time.Time) error

	// ClearSignature resets both fields of slot to null. Clearing a slot of a
	// missing record is not an error and does not create the record.
	ClearSignature(ctx context.Context, key string, slot contract.Slot) error

	// SetAccepted sets accepted to true and accepted_at to at, creating the
	// record if needed.
	SetAccepted(ctx context.Context, key string, at time.Time) error

	// Close releases backend resources.
	Close() error
}

// Op names used for instrumentation and retry reporting.
const (
	OpRead            = "read"
	OpUpsertSignature = "upsert_signature"
	OpClearSignature  = "clear_signature"
	OpSetAccepted     = "set_accepted"
)

// Fields returns the logical record fields backing slot.
func Fields(slot contract.Slot) (contract.FieldNames, error) {
	if !slot.Valid() {
		return contract.FieldNames{}, errors.New(errors.ErrCodeInvalidSlot, "invalid slot %d", uint8(slot))
	}
	return slot.Fields(), nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, errors.ErrCodeNotFound)
}

// CheckKey validates a record key before it reaches a backend.
func CheckKey(key string) error {
	return errors.ValidateKey(key)
}

// CheckSignature validates the arguments of UpsertSignature.
func CheckSignature(key string, slot contract.Slot, image contract.Blob) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if _, err := Fields(slot); err != nil {
		return err
	}
	if image.IsZero() {
		return errors.New(errors.ErrCodeInvalidInput, "signature image for slot %s is empty", slot)
	}
	return nil
}

// =============================================================================
// Retryable errors
// =============================================================================

// RetryableError marks a backend failure as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. A nil err yields nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is marked transient anywhere in its chain.
func IsRetryable(err error) bool {
	return stderrors.As(err, new(*RetryableError))
}

// MarkTransient wraps err as retryable when it looks like a connection
// problem: a net.Error, a dropped connection or a bad driver connection.
// Other errors are returned unchanged.
func MarkTransient(err error) error {
	if err == nil || IsRetryable(err) {
		return err
	}
	var netErr net.Error
	switch {
	case stderrors.As(err, &netErr),
		stderrors.Is(err, driver.ErrBadConn),
		stderrors.Is(err, io.ErrUnexpectedEOF),
		stderrors.Is(err, io.EOF):
		return Retryable(err)
	}
	return err
}

// Fail wraps a backend failure as a STORE_ERROR, marking transient causes
// retryable.
func Fail(cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	if stderrors.Is(cause, context.Canceled) || stderrors.Is(cause, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, cause, format, args...)
	}
	return errors.Store(MarkTransient(cause), format, args...)
}
