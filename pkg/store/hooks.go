package store

import (
	"context"
	"time"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/observability"
)

type hookedStore struct {
	next Store
}

// WithHooks wraps s so every call is reported to observability.Store().
// Not-found reads are reported without an error.
func WithHooks(s Store) Store {
	return &hookedStore{next: s}
}

func report(ctx context.Context, op string, slot contract.Slot, start time.Time, err error) {
	name := ""
	if slot.Valid() {
		name = slot.String()
	}
	observability.Store().OnOperation(ctx, op, name, time.Since(start), err)
}

func (h *hookedStore) Read(ctx context.Context, key string) (contract.Document, error) {
	start := time.Now()
	doc, err := h.next.Read(ctx, key)
	if IsNotFound(err) {
		report(ctx, OpRead, contract.SlotUnknown, start, nil)
	} else {
		report(ctx, OpRead, contract.SlotUnknown, start, err)
	}
	return doc, err
}

func (h *hookedStore) UpsertSignature(ctx context.Context, key string, slot contract.Slot, image contract.Blob, at time.Time) error {
	start := time.Now()
	err := h.next.UpsertSignature(ctx, key, slot, image, at)
	report(ctx, OpUpsertSignature, slot, start, err)
	return err
}

func (h *hookedStore) ClearSignature(ctx context.Context, key string, slot contract.Slot) error {
	start := time.Now()
	err := h.next.ClearSignature(ctx, key, slot)
	report(ctx, OpClearSignature, slot, start, err)
	return err
}

func (h *hookedStore) SetAccepted(ctx context.Context, key string, at time.Time) error {
	start := time.Now()
	err := h.next.SetAccepted(ctx, key, at)
	report(ctx, OpSetAccepted, contract.SlotUnknown, start, err)
	return err
}

func (h *hookedStore) Close() error { return h.next.Close() }
