package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema idempotente; valores monetários em NUMERIC sem escala fixa para
// manter stake × multiplicador exato
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id         TEXT PRIMARY KEY,
		balance    NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0),
		version    BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT NOT NULL UNIQUE,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		kind       TEXT NOT NULL CHECK (kind IN ('deposit','withdrawal','wager_win','wager_loss')),
		amount     NUMERIC NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ledger_entries_account_seq ON ledger_entries (account_id, seq)`,
	`CREATE TABLE IF NOT EXISTS outcomes (
		id         BIGSERIAL PRIMARY KEY,
		label      TEXT NOT NULL,
		multiplier NUMERIC NOT NULL CHECK (multiplier >= 0),
		weight     INTEGER NOT NULL CHECK (weight >= 0),
		visible    BOOLEAN NOT NULL DEFAULT TRUE,
		color      TEXT NOT NULL DEFAULT '',
		text_color TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		title      TEXT NOT NULL,
		message    TEXT NOT NULL,
		severity   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_account_created ON notifications (account_id, created_at DESC)`,
}

// migrateLockKey serializa o Migrate entre serviços subindo juntos
const migrateLockKey = 7_001_001

// Migrate aplica o schema dentro de uma transação
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrateLockKey); err != nil {
		return fmt.Errorf("migrate lock: %w", err)
	}

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate stmt %d: %w", i, err)
		}
	}
	return tx.Commit()
}
