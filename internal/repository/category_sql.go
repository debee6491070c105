package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
)

const createCategoriesTable = `CREATE TABLE IF NOT EXISTS categories (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    name_ar VARCHAR(255) NOT NULL,
    description TEXT,
    icon VARCHAR(128) DEFAULT '',
    color VARCHAR(32) DEFAULT '',
    display_order INT DEFAULT 0,
    active TINYINT(1) DEFAULT 1,
    created_at DATETIME NOT NULL
) CHARACTER SET utf8mb4`

const categoryColumns = "id, name, name_ar, description, icon, color, display_order, active, created_at"

// categorySQLStore serves categories from the primary MySQL tier.
// CoursesCount is not stored; the service derives it.
type categorySQLStore struct {
	db      *sqlx.DB
	logger  *zap.Logger
	ensured atomic.Bool
}

func newCategorySQLStore(db *sqlx.DB, logger *zap.Logger) *categorySQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &categorySQLStore{db: db, logger: logger}
}

func (s *categorySQLStore) ensure(ctx context.Context) error {
	if s.ensured.Load() {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, createCategoriesTable); err != nil {
		return fmt.Errorf("ensure categories table: %w", err)
	}
	s.ensured.Store(true)
	return nil
}

func (s *categorySQLStore) List(ctx context.Context) ([]models.Category, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM categories ORDER BY display_order ASC, id ASC", categoryColumns)
	var categories []models.Category
	if err := s.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *categorySQLStore) GetByID(ctx context.Context, id int64) (models.Category, error) {
	var category models.Category
	if err := s.ensure(ctx); err != nil {
		return category, err
	}
	query := fmt.Sprintf("SELECT %s FROM categories WHERE id = ?", categoryColumns)
	if err := s.db.GetContext(ctx, &category, query, id); err != nil {
		return category, err
	}
	return category, nil
}

func (s *categorySQLStore) ExistsByName(ctx context.Context, name, nameAr string, excludeID int64) (bool, error) {
	if err := s.ensure(ctx); err != nil {
		return false, err
	}
	query := "SELECT 1 FROM categories WHERE (LOWER(name) = LOWER(?) OR LOWER(name_ar) = LOWER(?))"
	args := []interface{}{name, nameAr}
	if excludeID > 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := s.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check category name: %w", err)
	}
	return true, nil
}

func (s *categorySQLStore) Insert(ctx context.Context, category *models.Category) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	category.CreatedAt = time.Now().UTC()
	query := `INSERT INTO categories
		(name, name_ar, description, icon, color, display_order, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query,
		category.Name, category.NameAr, category.Description, category.Icon,
		category.Color, category.DisplayOrder, category.Active, category.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		category.ID = id
	}
	return nil
}

func (s *categorySQLStore) Update(ctx context.Context, category *models.Category) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	query := `UPDATE categories SET
		name = ?, name_ar = ?, description = ?, icon = ?, color = ?,
		display_order = ?, active = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		category.Name, category.NameAr, category.Description, category.Icon,
		category.Color, category.DisplayOrder, category.Active, category.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, err := s.GetByID(ctx, category.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *categorySQLStore) Delete(ctx context.Context, id int64) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
