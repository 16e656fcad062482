// Package file provides a contract store backed by JSON files.
//
// Each key is one file in the base directory. Writes go to a temporary file
// that is renamed into place, so a crash never leaves a half-written record.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// Store is a file-based contract store for CLI use.
type Store struct {
	mu      sync.RWMutex
	baseDir string
}

// New creates a store in baseDir.
// If baseDir is empty, defaults to ~/.local/share/lovecontract/records/
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "lovecontract", "records")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create record dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Path returns the base directory for record files.
func (s *Store) Path() string {
	return s.baseDir
}

func (s *Store) recordPath(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}

func (s *Store) Read(ctx context.Context, key string) (contract.Document, error) {
	if err := store.CheckKey(key); err != nil {
		return contract.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok, err := s.load(key)
	if err != nil {
		return contract.Document{}, err
	}
	if !ok {
		return contract.Document{}, store.ErrNotFound
	}
	return rec.Document(), nil
}

func (s *Store) UpsertSignature(ctx context.Context, key string, slot contract.Slot, image contract.Blob, at time.Time) error {
	if err := store.CheckSignature(key, slot, image); err != nil {
		return err
	}
	return s.update(key, true, func(rec *contract.Record) {
		at = at.UTC()
		rec.SetSignature(slot, contract.Signature{Image: image, SignedAt: &at})
	})
}

func (s *Store) ClearSignature(ctx context.Context, key string, slot contract.Slot) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	if _, err := store.Fields(slot); err != nil {
		return err
	}
	return s.update(key, false, func(rec *contract.Record) {
		rec.SetSignature(slot, contract.Signature{})
	})
}

func (s *Store) SetAccepted(ctx context.Context, key string, at time.Time) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	return s.update(key, true, func(rec *contract.Record) {
		at = at.UTC()
		rec.Accepted = true
		rec.AcceptedAt = &at
	})
}

func (s *Store) Close() error { return nil }

// update applies fn to the stored record. A missing record is created only
// when create is set.
func (s *Store) update(key string, create bool, fn func(*contract.Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok, err := s.load(key)
	if err != nil {
		return err
	}
	if !ok {
		if !create {
			return nil
		}
		rec = contract.Record{ID: key}
	}
	fn(&rec)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return store.Fail(err, "marshal record %s", key)
	}

	tmp, err := os.CreateTemp(s.baseDir, key+".*.tmp")
	if err != nil {
		return store.Fail(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return store.Fail(err, "write record %s", key)
	}
	if err := tmp.Close(); err != nil {
		return store.Fail(err, "write record %s", key)
	}
	if err := os.Rename(tmp.Name(), s.recordPath(key)); err != nil {
		return store.Fail(err, "replace record %s", key)
	}
	return nil
}

func (s *Store) load(key string) (contract.Record, bool, error) {
	data, err := os.ReadFile(s.recordPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return contract.Record{}, false, nil
		}
		return contract.Record{}, false, store.Fail(err, "read record file")
	}

	var rec contract.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return contract.Record{}, false, store.Fail(err, "parse record %s", key)
	}
	rec.ID = key
	return rec, true, nil
}

var _ store.Store = (*Store)(nil)
