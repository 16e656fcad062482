// Package sqlite provides a SQLite-backed contract store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/store/sqlite/migrations"
	"github.com/matzehuels/lovecontract/pkg/store/sqlstore"
)

const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"

// Dialect is the SQLite flavour of the contract statements.
var Dialect = sqlstore.Dialect{
	Name: "sqlite",
	Read: `SELECT signature_a, signature_a_at, signature_b, signature_b_at, accepted, accepted_at
	       FROM contracts WHERE id = ?`,
	Accept: `INSERT INTO contracts (id, accepted, accepted_at) VALUES (?, TRUE, ?)
	         ON CONFLICT (id) DO UPDATE SET accepted = TRUE, accepted_at = excluded.accepted_at`,
	Slots: map[contract.Slot]sqlstore.SlotStatements{
		contract.SlotA: {
			Upsert: `INSERT INTO contracts (id, signature_a, signature_a_at) VALUES (?, ?, ?)
			         ON CONFLICT (id) DO UPDATE SET signature_a = excluded.signature_a, signature_a_at = excluded.signature_a_at`,
			Clear: `UPDATE contracts SET signature_a = NULL, signature_a_at = NULL WHERE id = ?`,
		},
		contract.SlotB: {
			Upsert: `INSERT INTO contracts (id, signature_b, signature_b_at) VALUES (?, ?, ?)
			         ON CONFLICT (id) DO UPDATE SET signature_b = excluded.signature_b, signature_b_at = excluded.signature_b_at`,
			Clear: `UPDATE contracts SET signature_b = NULL, signature_b_at = NULL WHERE id = ?`,
		},
	},
	Retryable: isBusy,
}

// Open opens a SQLite contract store at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	sqlDB, err := sql.Open("sqlite", filepath.Clean(path)+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlstore.ApplyMigrations(ctx, sqlDB, migrations.FS, sqlstore.Question); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlstore.New(sqlDB, Dialect), nil
}

// isBusy reports lock contention, which clears once the other writer commits.
func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
		return true
	}
	return false
}
