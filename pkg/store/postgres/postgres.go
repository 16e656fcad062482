// Package postgres provides a PostgreSQL-backed contract store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/store/postgres/migrations"
	"github.com/matzehuels/lovecontract/pkg/store/sqlstore"
)

// Dialect is the PostgreSQL flavour of the contract statements.
var Dialect = sqlstore.Dialect{
	Name: "postgres",
	Read: `SELECT signature_a, signature_a_at, signature_b, signature_b_at, accepted, accepted_at
	       FROM contracts WHERE id = $1`,
	Accept: `INSERT INTO contracts (id, accepted, accepted_at) VALUES ($1, TRUE, $2)
	         ON CONFLICT (id) DO UPDATE SET accepted = TRUE, accepted_at = EXCLUDED.accepted_at`,
	Slots: map[contract.Slot]sqlstore.SlotStatements{
		contract.SlotA: {
			Upsert: `INSERT INTO contracts (id, signature_a, signature_a_at) VALUES ($1, $2, $3)
			         ON CONFLICT (id) DO UPDATE SET signature_a = EXCLUDED.signature_a, signature_a_at = EXCLUDED.signature_a_at`,
			Clear: `UPDATE contracts SET signature_a = NULL, signature_a_at = NULL WHERE id = $1`,
		},
		contract.SlotB: {
			Upsert: `INSERT INTO contracts (id, signature_b, signature_b_at) VALUES ($1, $2, $3)
			         ON CONFLICT (id) DO UPDATE SET signature_b = EXCLUDED.signature_b, signature_b_at = EXCLUDED.signature_b_at`,
			Clear: `UPDATE contracts SET signature_b = NULL, signature_b_at = NULL WHERE id = $1`,
		},
	},
	Retryable: isTransient,
}

// Open connects to PostgreSQL using dsn and applies embedded migrations.
func Open(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := sqlstore.ApplyMigrations(ctx, db, migrations.FS, sqlstore.Dollar); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlstore.New(db, Dialect), nil
}

// isTransient reports connection, serialization and lock failures that a
// later attempt can get past.
func isTransient(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code.Class() {
	case "08", // connection exception
		"40", // transaction rollback (serialization, deadlock)
		"57": // operator intervention (admin shutdown)
		return true
	}
	return pqErr.Code == "55P03" // lock_not_available
}
