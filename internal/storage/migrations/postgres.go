package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresExecer is satisfied by *postgres.Pool and pgx.Tx.
type PostgresExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const createLedger = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name        TEXT PRIMARY KEY,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const recordApplied = `INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`

// RunPostgresMigrations applies every embedded file and records it in
// schema_migrations. Files use IF NOT EXISTS, so rerunning is harmless;
// Postgres accepts each file as one multi-statement Exec.
func RunPostgresMigrations(ctx context.Context, db PostgresExecer) error {
	migs, err := Load(Postgres)
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, createLedger); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migs {
		if _, err := db.Exec(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		if _, err := db.Exec(ctx, recordApplied, m.Name); err != nil {
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
	}
	return nil
}
