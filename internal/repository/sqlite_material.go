package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/sillage/internal/db"
	"github.com/alexanderramin/sillage/internal/domain"
)

type SQLiteMaterialRepo struct {
	db db.DBTX
}

func NewSQLiteMaterialRepo(conn db.DBTX) *SQLiteMaterialRepo {
	return &SQLiteMaterialRepo{db: conn}
}

const dateLayout = "2006-01-02"

const materialSelect = `SELECT m.id, m.owner_id, m.title, m.cas, m.alt_name, m.pyramid, m.ifra_limit,
		m.date_obtained, m.description, m.is_published, m.archived_at, m.created_at, m.updated_at,
		c.id, c.owner_id, c.name, c.color, c.is_custom
	FROM materials m LEFT JOIN categories c ON c.id = m.category_id`

func (r *SQLiteMaterialRepo) Create(ctx context.Context, m *domain.Material) error {
	query := `INSERT INTO materials (id, owner_id, title, cas, alt_name, category_id, pyramid, ifra_limit,
		date_obtained, description, is_published, archived_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.OwnerID,
		m.Title,
		m.CAS,
		m.AltName,
		nullableString(m.Category.ID),
		joinPyramid(m.Pyramid),
		m.IFRALimit,
		nullableTimeToString(m.DateObtained, dateLayout),
		m.Description,
		boolToInt(m.IsPublished),
		nullableTimeToString(m.ArchivedAt, time.RFC3339),
		m.CreatedAt.Format(time.RFC3339),
		m.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting material: %w", err)
	}
	return r.writeDilutions(ctx, m.ID, m.Dilutions)
}

func (r *SQLiteMaterialRepo) GetByID(ctx context.Context, id string) (*domain.Material, error) {
	m, err := scanMaterial(r.db.QueryRowContext(ctx, materialSelect+` WHERE m.id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachDilutions(ctx, []*domain.Material{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// GetByTitle matches case-insensitively; archived materials are included.
func (r *SQLiteMaterialRepo) GetByTitle(ctx context.Context, ownerID, title string) (*domain.Material, error) {
	row := r.db.QueryRowContext(ctx,
		materialSelect+` WHERE m.owner_id = ? AND LOWER(m.title) = LOWER(?) ORDER BY m.created_at LIMIT 1`,
		ownerID, strings.TrimSpace(title))
	m, err := scanMaterial(row)
	if err != nil {
		return nil, err
	}
	if err := r.attachDilutions(ctx, []*domain.Material{m}); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *SQLiteMaterialRepo) List(ctx context.Context, ownerID string, includeArchived bool) ([]*domain.Material, error) {
	query := materialSelect + ` WHERE m.owner_id = ?`
	if !includeArchived {
		query += ` AND m.archived_at IS NULL`
	}
	query += ` ORDER BY m.title COLLATE NOCASE`
	return r.query(ctx, "listing materials", query, ownerID)
}

// Search matches the query against title, CAS number and alternative name.
// Archived materials are excluded.
func (r *SQLiteMaterialRepo) Search(ctx context.Context, ownerID, q string) ([]*domain.Material, error) {
	pattern := "%" + strings.TrimSpace(q) + "%"
	query := materialSelect + ` WHERE m.owner_id = ? AND m.archived_at IS NULL
		AND (m.title LIKE ? OR m.cas LIKE ? OR m.alt_name LIKE ?)
		ORDER BY m.title COLLATE NOCASE`
	return r.query(ctx, "searching materials", query, ownerID, pattern, pattern, pattern)
}

func (r *SQLiteMaterialRepo) Update(ctx context.Context, m *domain.Material) error {
	query := `UPDATE materials SET title = ?, cas = ?, alt_name = ?, category_id = ?, pyramid = ?,
		ifra_limit = ?, date_obtained = ?, description = ?, is_published = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		m.Title,
		m.CAS,
		m.AltName,
		nullableString(m.Category.ID),
		joinPyramid(m.Pyramid),
		m.IFRALimit,
		nullableTimeToString(m.DateObtained, dateLayout),
		m.Description,
		boolToInt(m.IsPublished),
		m.UpdatedAt.Format(time.RFC3339),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("updating material: %w", err)
	}
	if err := requireAffected(res, "material"); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM material_dilutions WHERE material_id = ?`, m.ID); err != nil {
		return fmt.Errorf("clearing material dilutions: %w", err)
	}
	return r.writeDilutions(ctx, m.ID, m.Dilutions)
}

func (r *SQLiteMaterialRepo) Archive(ctx context.Context, id string) error {
	now := nowUTC()
	res, err := r.db.ExecContext(ctx, `UPDATE materials SET archived_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	if err != nil {
		return fmt.Errorf("archiving material: %w", err)
	}
	return requireAffected(res, "material")
}

func (r *SQLiteMaterialRepo) Unarchive(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE materials SET archived_at = NULL, updated_at = ? WHERE id = ?`, nowUTC(), id)
	if err != nil {
		return fmt.Errorf("unarchiving material: %w", err)
	}
	return requireAffected(res, "material")
}

func (r *SQLiteMaterialRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting material: %w", err)
	}
	return requireAffected(res, "material")
}

func (r *SQLiteMaterialRepo) query(ctx context.Context, op, query string, args ...any) ([]*domain.Material, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var out []*domain.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating materials: %w", err)
	}
	// Release the connection before loading dilutions; in-memory databases
	// run on a single connection.
	rows.Close()

	if err := r.attachDilutions(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteMaterialRepo) writeDilutions(ctx context.Context, materialID string, dilutions []float64) error {
	for i, d := range dilutions {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO material_dilutions (material_id, position, dilution) VALUES (?, ?, ?)`,
			materialID, i, d)
		if err != nil {
			return fmt.Errorf("inserting material dilution: %w", err)
		}
	}
	return nil
}

func (r *SQLiteMaterialRepo) attachDilutions(ctx context.Context, ms []*domain.Material) error {
	if len(ms) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Material, len(ms))
	args := make([]any, len(ms))
	for i, m := range ms {
		byID[m.ID] = m
		args[i] = m.ID
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT material_id, dilution FROM material_dilutions
		WHERE material_id IN (`+placeholders(len(ms))+`) ORDER BY material_id, position`, args...)
	if err != nil {
		return fmt.Errorf("loading material dilutions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var d float64
		if err := rows.Scan(&id, &d); err != nil {
			return fmt.Errorf("scanning material dilution: %w", err)
		}
		if m := byID[id]; m != nil {
			m.Dilutions = append(m.Dilutions, d)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating material dilutions: %w", err)
	}
	return nil
}

func scanMaterial(row rowScanner) (*domain.Material, error) {
	var m domain.Material
	var pyramid, createdAt, updatedAt string
	var published int
	var dateObtained, archivedAt sql.NullString
	var catID, catOwner, catName, catColor sql.NullString
	var catCustom sql.NullInt64

	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Title, &m.CAS, &m.AltName, &pyramid, &m.IFRALimit,
		&dateObtained, &m.Description, &published, &archivedAt, &createdAt, &updatedAt,
		&catID, &catOwner, &catName, &catColor, &catCustom,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("material: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning material: %w", err)
	}

	m.Pyramid = splitPyramid(pyramid)
	m.IsPublished = intToBool(published)
	m.DateObtained = parseNullableTime(dateObtained, dateLayout)
	m.ArchivedAt = parseNullableTime(archivedAt, time.RFC3339)
	if m.CreatedAt, m.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return nil, err
	}
	if catID.Valid {
		m.Category = domain.Category{
			ID:       catID.String,
			OwnerID:  catOwner.String,
			Name:     catName.String,
			Color:    catColor.String,
			IsCustom: catCustom.Int64 != 0,
		}
	}
	return &m, nil
}

func requireAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}
