// Package pkg provides the core libraries for lovecontract, a two-party
// Valentine's contract that each party signs by drawing.
//
// # Overview
//
// A single contract record holds two signature slots and an acceptance
// flag. Signatures are drawn on a capture surface, encoded as PNG data URLs
// and replayed into small display surfaces. The libraries are organized as:
//
//  1. [contract] - Domain types: slots, signatures, the document and its flat record
//  2. [canvas] - Raster surfaces and the pen renderer that draws strokes
//  3. [blob] - Data URL encoding, decoding and the cancellable signature loader
//  4. [store] - The persistence port with memory, file, sqlite, postgres, redis and mongo backends
//  5. [session] - The per-session coordinator, its timers and the idle-session registry
//  6. [render/sheet] - The printable contract page
//
// Supporting packages: [errors] (coded errors), [observability] (hook
// registry for metrics) and [buildinfo] (link-time version).
//
// # Data Flow
//
//	strokes ──► canvas.Surface (600x300) ──► blob.Encode ──► store.UpsertSignature
//	                                                              │
//	display (280x100) ◄── blob.Loader ◄── store.Read ◄────────────┘
//
// Every mutation is applied in memory first and persisted afterwards. A
// failed write leaves the in-memory state in place and queues a notice,
// unless the coordinator was created with [session.WithRollback].
//
// # Quick Start
//
//	st := memory.New()
//	coord := session.New(st)
//	defer coord.Close()
//
//	if err := coord.Load(ctx); err != nil {
//	    return err
//	}
//	coord.OpenCapture(contract.SlotA)
//	coord.Stroke([]canvas.Point{canvas.Pt(10, 10), canvas.Pt(120, 40)})
//	res := coord.SaveCapture(ctx)
//
// # Testing
//
//	go test ./pkg/...                    # Unit tests
//	go test -tags integration ./pkg/...  # Postgres, Redis and Mongo via testcontainers
//
// [contract]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/contract
// [canvas]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/canvas
// [blob]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/blob
// [store]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/store
// [session]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/session
// [session.WithRollback]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/session#WithRollback
// [render/sheet]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/render/sheet
// [errors]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/lovecontract/pkg/buildinfo
package pkg
