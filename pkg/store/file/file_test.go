package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/store"
	"github.com/matzehuels/lovecontract/pkg/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(t.TempDir())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		return s
	})
}

func TestRecordsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.UpsertSignature(ctx, contract.DocumentID, contract.SlotA, storetest.Blob, time.Now()); err != nil {
		t.Fatalf("UpsertSignature: %v", err)
	}

	reopened, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc, err := reopened.Read(ctx, contract.DocumentID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !doc.Signed(contract.SlotA) {
		t.Error("slot a should survive a reopen")
	}

	if _, err := os.Stat(filepath.Join(dir, contract.DocumentID+".json")); err != nil {
		t.Errorf("record file missing: %v", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestCorruptRecordIsStoreError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, contract.DocumentID+".json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = s.Read(context.Background(), contract.DocumentID)
	if err == nil || store.IsNotFound(err) {
		t.Fatalf("Read of corrupt file = %v, want STORE_ERROR", err)
	}
}
