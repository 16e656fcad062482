// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about store operations, blob encoding and decoding, and
// signing sessions.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Libraries never import a metrics backend; internal/metrics registers a
// Prometheus implementation from main.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    observability.SetCodecHooks(&myCodecHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	err := backend.UpsertSignature(ctx, key, slot, b, at)
//	observability.Store().OnOperation(ctx, "upsert_signature", slot.String(), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from contract store operations.
type StoreHooks interface {
	// OnOperation records one completed store call. slot is empty for
	// operations that are not slot-specific.
	OnOperation(ctx context.Context, op, slot string, duration time.Duration, err error)

	// OnRetry records a retry after a transient failure.
	OnRetry(ctx context.Context, op string, attempt int, err error)
}

// =============================================================================
// Codec Hooks
// =============================================================================

// CodecHooks receives events from signature blob encoding and decoding.
type CodecHooks interface {
	OnEncode(ctx context.Context, size int, duration time.Duration, err error)
	OnDecode(ctx context.Context, mediaType string, size int, duration time.Duration, err error)
}

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from signing sessions.
type SessionHooks interface {
	// OnSessionOpen and OnSessionClose bracket a coordinator's lifetime.
	OnSessionOpen(ctx context.Context)
	OnSessionClose(ctx context.Context)

	// OnSignatureSaved records a saved capture for slot.
	OnSignatureSaved(ctx context.Context, slot string)

	// OnPersistFailure records a store write whose in-memory update was kept
	// or rolled back.
	OnPersistFailure(ctx context.Context, op, slot string, rolledBack bool)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnOperation(context.Context, string, string, time.Duration, error) {}
func (NoopStoreHooks) OnRetry(context.Context, string, int, error)                     {}

// NoopCodecHooks is a no-op implementation of CodecHooks.
type NoopCodecHooks struct{}

func (NoopCodecHooks) OnEncode(context.Context, int, time.Duration, error)         {}
func (NoopCodecHooks) OnDecode(context.Context, string, int, time.Duration, error) {}

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnSessionOpen(context.Context)                         {}
func (NoopSessionHooks) OnSessionClose(context.Context)                        {}
func (NoopSessionHooks) OnSignatureSaved(context.Context, string)              {}
func (NoopSessionHooks) OnPersistFailure(context.Context, string, string, bool) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	storeHooks   StoreHooks   = NoopStoreHooks{}
	codecHooks   CodecHooks   = NoopCodecHooks{}
	sessionHooks SessionHooks = NoopSessionHooks{}
	hooksMu      sync.RWMutex
)

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetCodecHooks registers custom codec hooks.
func SetCodecHooks(h CodecHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		codecHooks = h
	}
}

// SetSessionHooks registers custom session hooks.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Codec returns the registered codec hooks.
func Codec() CodecHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return codecHooks
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	codecHooks = NoopCodecHooks{}
	sessionHooks = NoopSessionHooks{}
}
