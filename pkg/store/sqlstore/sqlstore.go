// Package sqlstore implements the contract store over database/sql.
//
// The sqlite and postgres backends share this implementation and differ only
// in their [Dialect]: placeholder style, the statements for each slot and how
// schema migrations are recorded. Timestamps are stored as Unix milliseconds
// in UTC so both databases round-trip them identically.
package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// SlotStatements are the per-slot write statements.
type SlotStatements struct {
	// Upsert takes (id, image, signed_at).
	Upsert string
	// Clear takes (id).
	Clear string
}

// Dialect is the SQL a backend runs. Column names are fixed per slot so no
// statement is ever assembled from field names at runtime.
type Dialect struct {
	Name string

	// Read takes (id) and selects signature_a, signature_a_at, signature_b,
	// signature_b_at, accepted, accepted_at.
	Read string

	// Accept takes (id, accepted_at).
	Accept string

	Slots map[contract.Slot]SlotStatements

	// Retryable classifies driver errors beyond the generic connection checks.
	Retryable func(error) bool
}

// Store is a database/sql backed contract store.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an open database. The schema must already be migrated.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func (s *Store) fail(err error, format string, args ...any) error {
	if s.dialect.Retryable != nil && s.dialect.Retryable(err) {
		err = store.Retryable(err)
	}
	return store.Fail(err, format, args...)
}

func (s *Store) Read(ctx context.Context, key string) (contract.Document, error) {
	if err := store.CheckKey(key); err != nil {
		return contract.Document{}, err
	}

	var (
		sigA, sigB     sql.NullString
		sigAAt, sigBAt sql.NullInt64
		accepted       bool
		acceptedAt     sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, s.dialect.Read, key).
		Scan(&sigA, &sigAAt, &sigB, &sigBAt, &accepted, &acceptedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return contract.Document{}, store.ErrNotFound
	}
	if err != nil {
		return contract.Document{}, s.fail(err, "read %s", key)
	}

	rec := contract.Record{
		ID:           key,
		SignatureA:   nullString(sigA),
		SignatureAAt: fromMillis(sigAAt),
		SignatureB:   nullString(sigB),
		SignatureBAt: fromMillis(sigBAt),
		Accepted:     accepted,
		AcceptedAt:   fromMillis(acceptedAt),
	}
	return rec.Document(), nil
}

func (s *Store) UpsertSignature(ctx context.Context, key string, slot contract.Slot, image contract.Blob, at time.Time) error {
	if err := store.CheckSignature(key, slot, image); err != nil {
		return err
	}
	stmt := s.dialect.Slots[slot]
	if _, err := s.db.ExecContext(ctx, stmt.Upsert, key, string(image), toMillis(at)); err != nil {
		return s.fail(err, "upsert signature %s", slot)
	}
	return nil
}

func (s *Store) ClearSignature(ctx context.Context, key string, slot contract.Slot) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	if _, err := store.Fields(slot); err != nil {
		return err
	}
	stmt := s.dialect.Slots[slot]
	if _, err := s.db.ExecContext(ctx, stmt.Clear, key); err != nil {
		return s.fail(err, "clear signature %s", slot)
	}
	return nil
}

func (s *Store) SetAccepted(ctx context.Context, key string, at time.Time) error {
	if err := store.CheckKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.Accept, key, toMillis(at)); err != nil {
		return s.fail(err, "set accepted")
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ store.Store = (*Store)(nil)
