// Package memory provides an in-memory contract store.
//
// Records live only as long as the process. The store is safe for
// concurrent use and is the default for tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// Store keeps records in a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	records map[string]contract.Record
}

// New returns an empty store.
func New() *Store {
	return &Store{records: make(map[string]contract.Record)}
}

func (s *Store) Read(ctx context.Context, key string) (contract.Document, error) {
	if err := store.CheckKey(key); err != nil {
		return contract.Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return contract.Document{}, store.Fail(err, "read %s", key)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return contract.Document{}, store.ErrNotFound
	}
	return rec.Document(), nil
}

func (s *Store) UpsertSignature(ctx context.Context, key string, slot contract.Slot, image contract.Blob, at time.Time) error {
	if err := store.CheckSignature(key, slot, image); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return store.Fail(err, "upsert signature %s", slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.recordLocked(key)
	at = at.UTC()
	rec.SetSignature(slot, contract.Signature{Image: image, SignedAt: &at})
	s.records[key] = rec
	return nil
}

func (s *Store) ClearSignature(ctx context.Context, key string, slot contract.Slot) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	if _, err := store.Fields(slot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return store.Fail(err, "clear signature %s", slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil
	}
	rec.SetSignature(slot, contract.Signature{})
	s.records[key] = rec
	return nil
}

func (s *Store) SetAccepted(ctx context.Context, key string, at time.Time) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return store.Fail(err, "set accepted")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.recordLocked(key)
	at = at.UTC()
	rec.Accepted = true
	rec.AcceptedAt = &at
	s.records[key] = rec
	return nil
}

func (s *Store) Close() error { return nil }

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) recordLocked(key string) contract.Record {
	rec, ok := s.records[key]
	if !ok {
		rec = contract.Record{ID: key}
	}
	return rec
}

var _ store.Store = (*Store)(nil)
