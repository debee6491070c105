package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
)

const createStudentsTable = `CREATE TABLE IF NOT EXISTS students (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    student_number VARCHAR(64) NOT NULL UNIQUE,
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL UNIQUE,
    phone VARCHAR(64) DEFAULT '',
    birth_date VARCHAR(64) DEFAULT '',
    gender VARCHAR(32) DEFAULT '',
    address VARCHAR(512) DEFAULT '',
    enrollment_date VARCHAR(64) DEFAULT '',
    status VARCHAR(32) DEFAULT 'active',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
) CHARACTER SET utf8mb4`

const studentColumns = `id, student_number, first_name, last_name, email, phone,
	birth_date, gender, address, enrollment_date, status, created_at, updated_at`

// StudentRepository serves the roster from MySQL only. Roster data carries
// uniqueness guarantees the lower tiers cannot enforce, so there is no
// fallback chain here: when the primary is down, roster operations fail.
type StudentRepository struct {
	db      *sqlx.DB
	logger  *zap.Logger
	ensured atomic.Bool
}

func NewStudentRepository(db *sqlx.DB, logger *zap.Logger) *StudentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentRepository{db: db, logger: logger}
}

func (r *StudentRepository) ensure(ctx context.Context) error {
	if r.ensured.Load() {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, createStudentsTable); err != nil {
		return fmt.Errorf("ensure students table: %w", err)
	}
	r.ensured.Store(true)
	return nil
}

func (r *StudentRepository) List(ctx context.Context, search string) ([]models.Student, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM students", studentColumns)
	args := []interface{}{}
	if search != "" {
		needle := "%" + strings.ToLower(search) + "%"
		query += ` WHERE LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?
			OR LOWER(email) LIKE ? OR LOWER(student_number) LIKE ?`
		args = append(args, needle, needle, needle, needle)
	}
	query += " ORDER BY created_at DESC, id DESC"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (models.Student, error) {
	var student models.Student
	if err := r.ensure(ctx); err != nil {
		return student, err
	}
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = ?", studentColumns)
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return student, err
	}
	return student, nil
}

func (r *StudentRepository) ExistsByNumber(ctx context.Context, number string, excludeID int64) (bool, error) {
	return r.exists(ctx, "student_number", number, excludeID)
}

func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	return r.exists(ctx, "email", email, excludeID)
}

func (r *StudentRepository) exists(ctx context.Context, column, value string, excludeID int64) (bool, error) {
	if err := r.ensure(ctx); err != nil {
		return false, err
	}
	query := fmt.Sprintf("SELECT 1 FROM students WHERE LOWER(%s) = LOWER(?)", column)
	args := []interface{}{value}
	if excludeID > 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student %s: %w", column, err)
	}
	return true, nil
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	query := `INSERT INTO students
		(student_number, first_name, last_name, email, phone, birth_date,
		 gender, address, enrollment_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		student.StudentNumber, student.FirstName, student.LastName,
		student.Email, student.Phone, student.BirthDate, student.Gender,
		student.Address, student.EnrollmentDate, student.Status,
		student.CreatedAt, student.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		student.ID = id
	}
	return nil
}

func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	student.UpdatedAt = time.Now().UTC()

	query := `UPDATE students SET
		student_number = ?, first_name = ?, last_name = ?, email = ?, phone = ?,
		birth_date = ?, gender = ?, address = ?, enrollment_date = ?, status = ?,
		updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		student.StudentNumber, student.FirstName, student.LastName,
		student.Email, student.Phone, student.BirthDate, student.Gender,
		student.Address, student.EnrollmentDate, student.Status,
		student.UpdatedAt, student.ID)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, student.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	if err := r.ensure(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
