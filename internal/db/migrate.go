package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateDropStoredConcentration(db); err != nil {
		return fmt.Errorf("dropping stored blend concentration: %w", err)
	}
	return nil
}

// migrateDropStoredConcentration rebuilds blends created by early versions,
// which persisted the computed concentration next to the lines it was derived
// from. The column is dropped; concentration is always recomputed on read.
func migrateDropStoredConcentration(db *sql.DB) error {
	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring db connection: %w", err)
	}
	defer conn.Close()

	var createSQL string
	if err := conn.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'blends'`).Scan(&createSQL); err != nil {
		return fmt.Errorf("loading blends schema: %w", err)
	}
	if !strings.Contains(strings.ToLower(createSQL), "concentration") {
		return nil
	}

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return fmt.Errorf("disabling foreign keys: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, `PRAGMA foreign_keys = ON`)
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS blends_new`); err != nil {
		return fmt.Errorf("dropping stale blends_new: %w", err)
	}
	if _, err := tx.ExecContext(ctx, strings.Replace(blendsTable, "blends", "blends_new", 1)); err != nil {
		return fmt.Errorf("creating blends_new: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO blends_new (`+blendColumns+`) SELECT `+blendColumns+` FROM blends`); err != nil {
		return fmt.Errorf("copying blends data: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE blends`); err != nil {
		return fmt.Errorf("dropping old blends: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE blends_new RENAME TO blends`); err != nil {
		return fmt.Errorf("renaming blends_new: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_blends_owner ON blends(owner_id, kind)`); err != nil {
		return fmt.Errorf("recreating idx_blends_owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing blends migration: %w", err)
	}
	committed = true
	return nil
}

const blendColumns = `id, owner_id, kind, title, note, is_base, is_published,
	diluent_name, diluent_weight, archived_at, created_at, updated_at`

const blendsTable = `CREATE TABLE IF NOT EXISTS blends (
		id             TEXT PRIMARY KEY,
		owner_id       TEXT NOT NULL,
		kind           TEXT NOT NULL CHECK(kind IN ('accord','formula')),
		title          TEXT NOT NULL,
		note           TEXT NOT NULL DEFAULT '',
		is_base        INTEGER NOT NULL DEFAULT 0,
		is_published   INTEGER NOT NULL DEFAULT 0,
		diluent_name   TEXT NOT NULL DEFAULT 'Solvent',
		diluent_weight REAL NOT NULL DEFAULT 0 CHECK(diluent_weight >= 0),
		archived_at    TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id        TEXT PRIMARY KEY,
		owner_id  TEXT NOT NULL,
		name      TEXT NOT NULL,
		color     TEXT NOT NULL DEFAULT '#928374',
		is_custom INTEGER NOT NULL DEFAULT 0,
		UNIQUE(owner_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS materials (
		id            TEXT PRIMARY KEY,
		owner_id      TEXT NOT NULL,
		title         TEXT NOT NULL,
		cas           TEXT NOT NULL DEFAULT '',
		alt_name      TEXT NOT NULL DEFAULT '',
		category_id   TEXT REFERENCES categories(id) ON DELETE SET NULL,
		pyramid       TEXT NOT NULL DEFAULT '',
		ifra_limit    REAL NOT NULL DEFAULT 0 CHECK(ifra_limit >= 0 AND ifra_limit <= 100),
		date_obtained TEXT,
		description   TEXT NOT NULL DEFAULT '',
		is_published  INTEGER NOT NULL DEFAULT 0,
		archived_at   TEXT,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_materials_owner ON materials(owner_id)`,

	`CREATE TABLE IF NOT EXISTS material_dilutions (
		material_id TEXT NOT NULL REFERENCES materials(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		dilution    REAL NOT NULL CHECK(dilution > 0 AND dilution <= 100),
		PRIMARY KEY (material_id, position)
	)`,

	blendsTable,

	`CREATE INDEX IF NOT EXISTS idx_blends_owner ON blends(owner_id, kind)`,

	`CREATE TABLE IF NOT EXISTS blend_lines (
		blend_id TEXT NOT NULL REFERENCES blends(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		ref_id   TEXT NOT NULL,
		kind     TEXT NOT NULL CHECK(kind IN ('material','accord')),
		weight   REAL NOT NULL DEFAULT 0 CHECK(weight >= 0),
		dilution REAL NOT NULL CHECK(dilution > 0 AND dilution <= 100),
		PRIMARY KEY (blend_id, position),
		UNIQUE (blend_id, ref_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_blend_lines_ref ON blend_lines(ref_id)`,
}
