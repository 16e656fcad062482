// Package session coordinates one signing session over the contract record.
//
// A [Coordinator] owns the in-memory mirror of the contract document, the
// two display surfaces, the capture surface of an open signing interaction,
// and three independent state axes:
//
//   - View: Contract, Envelope or Celebration. Celebration is reachable only
//     while both slots are signed.
//   - Envelope: Closed, Opening, Open. Opening turns into Open on its own after
//     a fixed delay.
//   - Acceptance: Pending or Accepted, never reverted.
//
// Saving slot B also shows the celebration overlay for a fixed duration.
//
// # Persistence
//
// Every write returns a [Result]. By default the in-memory update is kept
// even when the store rejects it, so the session keeps showing what the user
// did until the next Load. [WithRollback] reverts the in-memory state
// instead. Failures are logged and queued as [Notice] values either way.
//
// # Timers
//
// The envelope and celebration timers are named tasks on a [Scheduler]
// driven by an injectable clock. Rescheduling or cancelling a task makes any
// callback already in flight a no-op, and [Coordinator.Close] cancels them all.
//
// # Registry
//
// A [Registry] keeps one coordinator per browser session, keyed by a random
// UUID, and closes sessions that stay idle longer than their TTL.
package session
