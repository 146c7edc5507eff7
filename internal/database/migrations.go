package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"bookstore/pkg/utils"
)

// Migration is one forward-only schema step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns the schema steps in the order they must be applied.
// Applied versions are never edited; add a new step instead.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create users table",
			SQL: `
CREATE TABLE IF NOT EXISTS users (
  id         BIGSERIAL PRIMARY KEY,
  email      TEXT NOT NULL UNIQUE,
  password   TEXT NOT NULL,
  firstname  TEXT NOT NULL DEFAULT '',
  lastname   TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		},
		{
			Version:     2,
			Description: "create authors table",
			SQL: `
CREATE TABLE IF NOT EXISTS authors (
  id         BIGSERIAL PRIMARY KEY,
  user_id    BIGINT NOT NULL REFERENCES users(id),
  firstname  TEXT NOT NULL,
  lastname   TEXT NOT NULL,
  bio        TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		},
		{
			Version:     3,
			Description: "create books table",
			SQL: `
CREATE TABLE IF NOT EXISTS books (
  id         BIGSERIAL PRIMARY KEY,
  user_id    BIGINT NOT NULL REFERENCES users(id),
  author_id  BIGINT NOT NULL REFERENCES authors(id),
  title      TEXT NOT NULL,
  year       TEXT NOT NULL DEFAULT '',
  cover      TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
		},
		{
			Version:     4,
			Description: "index books by author",
			SQL:         `CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id)`,
		},
		{
			Version:     5,
			Description: "index listings by recency",
			SQL:         `CREATE INDEX IF NOT EXISTS idx_authors_updated_at ON authors(updated_at DESC)`,
		},
		{
			Version:     6,
			Description: "index book listings by recency",
			SQL:         `CREATE INDEX IF NOT EXISTS idx_books_updated_at ON books(updated_at DESC)`,
		},
	}
}

const createTrackingTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version     INT PRIMARY KEY,
  description TEXT NOT NULL,
  applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migrate applies every pending migration, each in its own transaction
// together with its schema_migrations row.
func Migrate(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	return apply(ctx, db, log, Migrations())
}

func apply(ctx context.Context, db *sql.DB, log *slog.Logger, migrations []Migration) error {
	if _, err := db.ExecContext(ctx, createTrackingTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		err := utils.WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
				m.Version, m.Description,
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		log.Info("migration applied", "version", m.Version, "description", m.Description)
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		out[v] = true
	}
	return out, rows.Err()
}
