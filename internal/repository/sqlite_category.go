package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/sillage/internal/db"
	"github.com/alexanderramin/sillage/internal/domain"
)

type SQLiteCategoryRepo struct {
	db db.DBTX
}

func NewSQLiteCategoryRepo(conn db.DBTX) *SQLiteCategoryRepo {
	return &SQLiteCategoryRepo{db: conn}
}

const categoryColumns = `id, owner_id, name, color, is_custom`

func (r *SQLiteCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	query := `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.OwnerID, c.Name, c.Color, boolToInt(c.IsCustom))
	if err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

func (r *SQLiteCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// GetByName matches case-insensitively within one owner's categories.
func (r *SQLiteCategoryRepo) GetByName(ctx context.Context, ownerID, name string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? AND LOWER(name) = LOWER(?)`,
		ownerID, name)
	return scanCategory(row)
}

func (r *SQLiteCategoryRepo) List(ctx context.Context, ownerID string) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? ORDER BY is_custom, name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	var custom int
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Color, &custom); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning category: %w", err)
	}
	c.IsCustom = intToBool(custom)
	return &c, nil
}
