package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/sillage/internal/db"
	"github.com/alexanderramin/sillage/internal/domain"
)

// SQLiteBlendRepo stores accords and formulas. Header writes and line writes
// are separate statements; callers that change both run them in a UnitOfWork.
type SQLiteBlendRepo struct {
	db db.DBTX
}

func NewSQLiteBlendRepo(conn db.DBTX) *SQLiteBlendRepo {
	return &SQLiteBlendRepo{db: conn}
}

const blendSelect = `SELECT id, owner_id, kind, title, note, is_base, is_published,
		diluent_name, diluent_weight, archived_at, created_at, updated_at
	FROM blends`

func (r *SQLiteBlendRepo) Create(ctx context.Context, b *domain.Blend) error {
	query := `INSERT INTO blends (id, owner_id, kind, title, note, is_base, is_published,
		diluent_name, diluent_weight, archived_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.OwnerID,
		string(b.Kind),
		b.Title,
		b.Note,
		boolToInt(b.IsBase),
		boolToInt(b.IsPublished),
		b.Diluent.Name,
		b.Diluent.Weight,
		nullableTimeToString(b.ArchivedAt, time.RFC3339),
		b.CreatedAt.Format(time.RFC3339),
		b.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting blend: %w", err)
	}
	return r.insertLines(ctx, b.ID, b.Lines)
}

func (r *SQLiteBlendRepo) GetByID(ctx context.Context, id string) (*domain.Blend, error) {
	b, err := scanBlend(r.db.QueryRowContext(ctx, blendSelect+` WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, []*domain.Blend{b}); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *SQLiteBlendRepo) List(ctx context.Context, f BlendFilter) ([]*domain.Blend, error) {
	query := blendSelect + ` WHERE owner_id = ?`
	args := []any{f.OwnerID}
	if f.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(f.Kind))
	}
	switch {
	case f.OnlyArchived:
		query += ` AND archived_at IS NOT NULL`
	case !f.IncludeArchived:
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY created_at, title`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing blends: %w", err)
	}
	var out []*domain.Blend
	for rows.Next() {
		b, err := scanBlend(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating blends: %w", err)
	}
	rows.Close()

	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteBlendRepo) Update(ctx context.Context, b *domain.Blend) error {
	query := `UPDATE blends SET title = ?, note = ?, is_base = ?, is_published = ?,
		diluent_name = ?, diluent_weight = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		b.Title,
		b.Note,
		boolToInt(b.IsBase),
		boolToInt(b.IsPublished),
		b.Diluent.Name,
		b.Diluent.Weight,
		b.UpdatedAt.Format(time.RFC3339),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating blend: %w", err)
	}
	return requireAffected(res, "blend")
}

func (r *SQLiteBlendRepo) ReplaceLines(ctx context.Context, blendID string, lines []domain.IngredientLine) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blend_lines WHERE blend_id = ?`, blendID); err != nil {
		return fmt.Errorf("clearing blend lines: %w", err)
	}
	return r.insertLines(ctx, blendID, lines)
}

func (r *SQLiteBlendRepo) Archive(ctx context.Context, id string) error {
	now := nowUTC()
	res, err := r.db.ExecContext(ctx, `UPDATE blends SET archived_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	if err != nil {
		return fmt.Errorf("archiving blend: %w", err)
	}
	return requireAffected(res, "blend")
}

func (r *SQLiteBlendRepo) Unarchive(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE blends SET archived_at = NULL, updated_at = ? WHERE id = ?`, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("unarchiving blend: %w", err)
	}
	return requireAffected(res, "blend")
}

func (r *SQLiteBlendRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blends WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting blend: %w", err)
	}
	return requireAffected(res, "blend")
}

func (r *SQLiteBlendRepo) CountReferences(ctx context.Context, refID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT blend_id) FROM blend_lines WHERE ref_id = ?`, refID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting references: %w", err)
	}
	return n, nil
}

func (r *SQLiteBlendRepo) insertLines(ctx context.Context, blendID string, lines []domain.IngredientLine) error {
	for i, l := range lines {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO blend_lines (blend_id, position, ref_id, kind, weight, dilution) VALUES (?, ?, ?, ?, ?, ?)`,
			blendID, i, l.RefID, string(l.Kind), l.Weight, l.Dilution)
		if err != nil {
			return fmt.Errorf("inserting blend line %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *SQLiteBlendRepo) attachLines(ctx context.Context, bs []*domain.Blend) error {
	if len(bs) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Blend, len(bs))
	args := make([]any, len(bs))
	for i, b := range bs {
		byID[b.ID] = b
		args[i] = b.ID
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT blend_id, ref_id, kind, weight, dilution FROM blend_lines
		WHERE blend_id IN (`+placeholders(len(bs))+`) ORDER BY blend_id, position`, args...)
	if err != nil {
		return fmt.Errorf("loading blend lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var blendID, kind string
		var l domain.IngredientLine
		if err := rows.Scan(&blendID, &l.RefID, &kind, &l.Weight, &l.Dilution); err != nil {
			return fmt.Errorf("scanning blend line: %w", err)
		}
		l.Kind = domain.LineKind(kind)
		if b := byID[blendID]; b != nil {
			b.Lines = append(b.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating blend lines: %w", err)
	}
	return nil
}

func scanBlend(row rowScanner) (*domain.Blend, error) {
	var b domain.Blend
	var kind, createdAt, updatedAt string
	var isBase, published int
	var archivedAt sql.NullString

	err := row.Scan(
		&b.ID, &b.OwnerID, &kind, &b.Title, &b.Note, &isBase, &published,
		&b.Diluent.Name, &b.Diluent.Weight, &archivedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("blend: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning blend: %w", err)
	}
	b.Kind = domain.BlendKind(kind)
	b.IsBase = intToBool(isBase)
	b.IsPublished = intToBool(published)
	b.ArchivedAt = parseNullableTime(archivedAt, time.RFC3339)
	if b.CreatedAt, b.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
