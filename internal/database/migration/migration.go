// Package migration applies the ordered schema steps, recording each applied
// step in schema_migrations so restarts only run what is new.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Step is one named, idempotent schema change.
type Step struct {
	Name string
	SQL  string
}

const createLedger = `CREATE TABLE IF NOT EXISTS schema_migrations (
  name       TEXT        PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const (
	queryApplied = `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`
	insertLedger = `INSERT INTO schema_migrations (name) VALUES ($1)`
)

// Steps is the schema in apply order. Append only.
var Steps = []Step{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_id     TEXT        NOT NULL,
  filename     TEXT        NOT NULL,
  storage_path TEXT        NOT NULL UNIQUE,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  content_type TEXT        NOT NULL,
  num_pages    INTEGER     NOT NULL DEFAULT 0 CHECK (num_pages >= 0),
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_owner_created",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner_created ON documents (owner_id, created_at DESC);`,
	},
	{
		Name: "create_table_editor_sessions",
		SQL: `CREATE TABLE IF NOT EXISTS editor_sessions (
  id          UUID        PRIMARY KEY,
  owner_id    TEXT        NOT NULL,
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  state       JSONB       NOT NULL,
  version     BIGINT      NOT NULL DEFAULT 1,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_editor_sessions_owner",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_editor_sessions_owner ON editor_sessions (owner_id);`,
	},
	{
		Name: "create_table_esign_docs",
		SQL: `CREATE TABLE IF NOT EXISTS esign_docs (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  owner_id   TEXT        NOT NULL,
  owner_name TEXT        NOT NULL DEFAULT '',
  file_name  TEXT        NOT NULL,
  file_path  TEXT        NOT NULL,
  settings   JSONB       NOT NULL DEFAULT '[]'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_esign_docs_owner",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_esign_docs_owner ON esign_docs (owner_id, created_at DESC);`,
	},
	{
		Name: "create_table_esign_members",
		SQL: `CREATE TABLE IF NOT EXISTS esign_members (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  file_id          UUID        NOT NULL REFERENCES esign_docs (id) ON DELETE CASCADE,
  position         INTEGER     NOT NULL,
  user_name        TEXT        NOT NULL DEFAULT 'Unknown',
  email            TEXT        NOT NULL,
  role             TEXT        NOT NULL,
  password_hash    TEXT,
  allowed_formats  JSONB       NOT NULL DEFAULT '[]'::jsonb,
  status           TEXT        NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'signed', 'expired')),
  next_id          UUID,
  signed_file_path TEXT,
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (file_id, position)
);`,
	},
	{
		Name: "create_index_esign_members_file_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_esign_members_file_status ON esign_members (file_id, status);`,
	},
	{
		Name: "create_table_esign_schedules",
		SQL: `CREATE TABLE IF NOT EXISTS esign_schedules (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  file_id     UUID        NOT NULL REFERENCES esign_docs (id) ON DELETE CASCADE,
  kind        TEXT        NOT NULL CHECK (kind IN ('reminder', 'expireDate')),
  period_days INTEGER     NOT NULL DEFAULT 0,
  next_notify DATE,
  status      TEXT        NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive', 'expired')),
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_esign_schedules_due",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_esign_schedules_due ON esign_schedules (status, kind, next_notify);`,
	},
	{
		Name: "add_column_esign_docs_placements",
		SQL:  `ALTER TABLE esign_docs ADD COLUMN IF NOT EXISTS placements JSONB NOT NULL DEFAULT '[]'::jsonb;`,
	},
}

// Migrate applies every step of Steps not yet recorded, each in its own
// transaction. It stops at the first failure.
func Migrate(ctx context.Context, db *sql.DB, log *slog.Logger, dbHost string) error {
	return run(ctx, db, log.With("component", "database", "db_host", dbHost), Steps)
}

func run(ctx context.Context, db *sql.DB, log *slog.Logger, steps []Step) error {
	start := time.Now()
	log.Info("migration starting", "event", "db_migration_start", "steps", len(steps))

	if _, err := db.ExecContext(ctx, createLedger); err != nil {
		log.Error("migration ledger unavailable", "event", "db_migration_failed", "error", err)
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, step := range steps {
		var done bool
		if err := db.QueryRowContext(ctx, queryApplied, step.Name).Scan(&done); err != nil {
			log.Error("migration check failed", "event", "db_migration_failed", "migration_step", step.Name, "error", err)
			return fmt.Errorf("check migration %s: %w", step.Name, err)
		}
		if done {
			continue
		}

		stepStart := time.Now()
		if err := apply(ctx, db, step); err != nil {
			log.Error("migration step failed",
				"event", "db_migration_failed",
				"migration_step", step.Name,
				"error", err,
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		applied++
		log.Info("migration step applied",
			"event", "db_migration_step",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	event := "db_migration_success"
	if applied == 0 {
		event = "db_migration_skip"
	}
	log.Info("migration finished", "event", event, "applied", applied, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func apply(ctx context.Context, db *sql.DB, step Step) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insertLedger, step.Name); err != nil {
		return err
	}
	return tx.Commit()
}
