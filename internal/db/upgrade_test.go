package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Early catalogs stored the computed concentration on each blend. Upgrading
// must keep every blend and its lines while dropping the stale column.
func TestMigrate_UpgradeDropsStoredConcentration(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	legacy := []string{
		`CREATE TABLE blends (
			id             TEXT PRIMARY KEY,
			owner_id       TEXT NOT NULL,
			kind           TEXT NOT NULL CHECK(kind IN ('accord','formula')),
			title          TEXT NOT NULL,
			note           TEXT NOT NULL DEFAULT '',
			is_base        INTEGER NOT NULL DEFAULT 0,
			is_published   INTEGER NOT NULL DEFAULT 0,
			diluent_name   TEXT NOT NULL DEFAULT 'Solvent',
			diluent_weight REAL NOT NULL DEFAULT 0,
			concentration  REAL NOT NULL DEFAULT 100,
			archived_at    TEXT,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL
		)`,
		`CREATE TABLE blend_lines (
			blend_id TEXT NOT NULL REFERENCES blends(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			ref_id   TEXT NOT NULL,
			kind     TEXT NOT NULL CHECK(kind IN ('material','accord')),
			weight   REAL NOT NULL DEFAULT 0 CHECK(weight >= 0),
			dilution REAL NOT NULL CHECK(dilution > 0 AND dilution <= 100),
			PRIMARY KEY (blend_id, position),
			UNIQUE (blend_id, ref_id)
		)`,
		`INSERT INTO blends (id, owner_id, kind, title, diluent_weight, concentration, created_at, updated_at)
			VALUES ('b1', 'alice', 'accord', 'Rose', 90, 1, '2024-05-01T10:00:00Z', '2024-05-01T10:00:00Z')`,
		`INSERT INTO blend_lines (blend_id, position, ref_id, kind, weight, dilution)
			VALUES ('b1', 0, 'm1', 'material', 10, 10)`,
	}
	for _, stmt := range legacy {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	require.NoError(t, Migrate(db))

	var createSQL string
	require.NoError(t, db.QueryRow(`SELECT sql FROM sqlite_master WHERE type='table' AND name='blends'`).Scan(&createSQL))
	assert.NotContains(t, createSQL, "concentration")

	var title string
	var diluent float64
	require.NoError(t, db.QueryRow(`SELECT title, diluent_weight FROM blends WHERE id='b1'`).Scan(&title, &diluent))
	assert.Equal(t, "Rose", title)
	assert.Equal(t, 90.0, diluent)

	var lines int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM blend_lines WHERE blend_id='b1'`).Scan(&lines))
	assert.Equal(t, 1, lines)

	var idx string
	require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name='idx_blends_owner'`).Scan(&idx))

	// Running again on the upgraded schema is a no-op.
	require.NoError(t, Migrate(db))
}
