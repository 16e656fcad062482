// Package storetest is a conformance suite every contract store backend runs.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Blob is a small, valid signature image.
const Blob contract.Blob = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

// Millisecond precision is the coarsest any backend stores.
var at = time.Date(2025, 2, 14, 9, 30, 15, 123_000_000, time.UTC)

// Run exercises the Store contract against the backend built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"ReadMissing", testReadMissing},
		{"UpsertCreatesRecord", testUpsertCreatesRecord},
		{"UpsertTouchesOnlyItsSlot", testUpsertTouchesOnlyItsSlot},
		{"UpsertOverwrites", testUpsertOverwrites},
		{"ClearSignature", testClearSignature},
		{"ClearMissingRecord", testClearMissingRecord},
		{"SetAccepted", testSetAccepted},
		{"AcceptSurvivesClear", testAcceptSurvivesClear},
		{"KeysAreIndependent", testKeysAreIndependent},
		{"RejectsInvalidInput", testRejectsInvalidInput},
		{"ConcurrentSlots", testConcurrentSlots},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

func testReadMissing(t *testing.T, s store.Store) {
	_, err := s.Read(context.Background(), contract.DocumentID)
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err), "want NOT_FOUND, got %v", err)
}

func testUpsertCreatesRecord(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.UpsertSignature(ctx, contract.DocumentID, contract.SlotA, Blob, at))

	doc, err := s.Read(ctx, contract.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, contract.DocumentID, doc.ID)

	sig := doc.Signature(contract.SlotA)
	assert.Equal(t, Blob, sig.Image)
	require.NotNil(t, sig.SignedAt)
	assert.True(t, at.Equal(*sig.SignedAt), "signed at = %v, want %v", sig.SignedAt, at)
	assert.False(t, doc.Signed(contract.SlotB))
	assert.False(t, doc.Acceptance.Accepted)
	assert.NoError(t, doc.Validate())
}

func testUpsertTouchesOnlyItsSlot(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.UpsertSignature(ctx, contract.DocumentID, contract.SlotA, Blob, at))
	require.NoError(t, s.SetAccepted(ctx, contract.DocumentID, at))
	require.NoError(t, s.UpsertSignature(ctx, contract.DocumentID, contract.SlotB, Blob, at.Add(time.Minute)))

	doc, err := s.Read(ctx, contract.DocumentID)
	require.NoError(t, err)
	assert.True(t, doc.BothSigned())
	assert.True(t, doc.Acceptance.Accepted)
	assert.True(t, at.Equal(*doc.Signature(contract.SlotA).SignedAt))
	assert.True(t, at.Add(time.Minute).Equal(*doc.Signature(contract.SlotB).SignedAt))
}

func testUpsertOverwrites(t *testing.T, s store.Store) {
	ctx := context.Background()
	other := contract.Blob(string(Blob) + "==")
	require.NoError(t, s.UpsertSignature(ctx, contract.DocumentID, contract.SlotB, Blob, at))
	require.NoError(t, s.UpsertSignature(ctx, contract.DocumentID, contract.SlotB, other, at.Add(time.Second)))

	doc, err := s.Read(ctx, contract.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, other, doc.Signature(contract.SlotB).Image)
	assert.True(t, at.Add(time.Second).Equal(*doc.Signature(contract.SlotB).SignedAt))
}

func testClearSignature(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.UpsertSignature(ctx, contract.DocumentID, contract.SlotA, Blob, at))
	require.NoError(t, s.UpsertSignature(ctx, contract.DocumentID, contract.SlotB, Blob, at))
	require.NoError(t, s.ClearSignature(ctx, contract.DocumentID, contract.SlotA))

	doc, err := s.Read(ctx, contract.DocumentID)
	require.NoError(t, err)
	sig := doc.Signature(contract.SlotA)
	assert.True(t, sig.Image.IsZero())
	assert.Nil(t, sig.SignedAt)
	assert.True(t, doc.Signed(contract.SlotB))
	assert.NoError(t, doc.Validate())

	// Clearing again is a no-op.
	require.NoError(t, s.ClearSignature(ctx, contract.DocumentID, contract.SlotA))
}

func testClearMissingRecord(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.ClearSignature(ctx, contract.DocumentID, contract.SlotB))

	_, err := s.Read(ctx, contract.DocumentID)
	assert.True(t, store.IsNotFound(err), "clear must not create the record, got %v", err)
}

func testSetAccepted(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SetAccepted(ctx, contract.DocumentID, at))
	require.NoError(t, s.SetAccepted(ctx, contract.DocumentID, at.Add(time.Hour)))

	doc, err := s.Read(ctx, contract.DocumentID)
	require.NoError(t, err)
	assert.True(t, doc.Acceptance.Accepted)
	require.NotNil(t, doc.Acceptance.AcceptedAt)
	assert.True(t, at.Add(time.Hour).Equal(*doc.Acceptance.AcceptedAt), "latest accept wins")
	assert.False(t, doc.Signed(contract.SlotA))
}

func testAcceptSurvivesClear(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.UpsertSignature(ctx, contract.DocumentID, contract.SlotA, Blob, at))
	require.NoError(t, s.SetAccepted(ctx, contract.DocumentID, at))
	for _, slot := range contract.Slots {
		require.NoError(t, s.ClearSignature(ctx, contract.DocumentID, slot))
	}

	doc, err := s.Read(ctx, contract.DocumentID)
	require.NoError(t, err)
	assert.True(t, doc.Acceptance.Accepted)
}

func testKeysAreIndependent(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.UpsertSignature(ctx, "first", contract.SlotA, Blob, at))
	require.NoError(t, s.SetAccepted(ctx, "second", at))

	first, err := s.Read(ctx, "first")
	require.NoError(t, err)
	assert.False(t, first.Acceptance.Accepted)

	second, err := s.Read(ctx, "second")
	require.NoError(t, err)
	assert.False(t, second.Signed(contract.SlotA))
}

func testRejectsInvalidInput(t *testing.T, s store.Store) {
	ctx := context.Background()

	err := s.UpsertSignature(ctx, contract.DocumentID, contract.SlotUnknown, Blob, at)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSlot), "got %v", err)

	err = s.UpsertSignature(ctx, contract.DocumentID, contract.SlotA, "", at)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)

	err = s.ClearSignature(ctx, contract.DocumentID, contract.Slot(9))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSlot), "got %v", err)

	_, err = s.Read(ctx, "../escape")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)

	err = s.SetAccepted(ctx, "", at)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func testConcurrentSlots(t *testing.T, s store.Store) {
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, len(contract.Slots))
	for i, slot := range contract.Slots {
		i, slot := i, slot
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.UpsertSignature(ctx, contract.DocumentID, slot, Blob, at)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	doc, err := s.Read(ctx, contract.DocumentID)
	require.NoError(t, err)
	assert.True(t, doc.BothSigned(), "parallel writes to different slots must not clobber each other")
}
