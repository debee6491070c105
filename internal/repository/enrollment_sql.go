package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
)

// Both drivers accept ? placeholders, so one store serves the MySQL and
// SQLite tiers. Only the CREATE TABLE text differs per dialect.
const (
	dialectMySQL  = "mysql"
	dialectSQLite = "sqlite"
)

const createEnrollmentsMySQL = `CREATE TABLE IF NOT EXISTS enrollment_requests (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    student_name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL,
    phone VARCHAR(64) DEFAULT '',
    course_id BIGINT NOT NULL,
    course_name VARCHAR(255) DEFAULT '',
    course_price VARCHAR(64) DEFAULT '',
    payment_method VARCHAR(64) DEFAULT '',
    payment_details TEXT,
    receipt_path VARCHAR(512) DEFAULT '',
    status VARCHAR(32) DEFAULT 'pending',
    request_number VARCHAR(64) NOT NULL,
    submitted_at DATETIME NOT NULL,
    approved_at DATETIME NULL,
    notes TEXT,
    welcome_message TEXT,
    contact_link VARCHAR(512) DEFAULT ''
) CHARACTER SET utf8mb4`

const createEnrollmentsSQLite = `CREATE TABLE IF NOT EXISTS enrollment_requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    student_name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT DEFAULT '',
    course_id INTEGER NOT NULL,
    course_name TEXT DEFAULT '',
    course_price TEXT DEFAULT '',
    payment_method TEXT DEFAULT '',
    payment_details TEXT,
    receipt_path TEXT DEFAULT '',
    status TEXT DEFAULT 'pending',
    request_number TEXT NOT NULL,
    submitted_at DATETIME NOT NULL,
    approved_at DATETIME NULL,
    notes TEXT,
    welcome_message TEXT,
    contact_link TEXT DEFAULT ''
)`

const enrollmentColumns = `id, student_name, email, phone, course_id, course_name,
	course_price, payment_method, payment_details, receipt_path, status,
	request_number, submitted_at, approved_at, notes, welcome_message, contact_link`

// enrollmentSQLStore serves enrollment requests from a SQL tier. The same
// type backs MySQL and SQLite; dialect only picks the DDL.
type enrollmentSQLStore struct {
	db      *sqlx.DB
	dialect string
	logger  *zap.Logger
	ensured atomic.Bool
}

func newEnrollmentSQLStore(db *sqlx.DB, dialect string, logger *zap.Logger) *enrollmentSQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &enrollmentSQLStore{db: db, dialect: dialect, logger: logger}
}

func (s *enrollmentSQLStore) ensure(ctx context.Context) error {
	if s.ensured.Load() {
		return nil
	}
	ddl := createEnrollmentsMySQL
	if s.dialect == dialectSQLite {
		ddl = createEnrollmentsSQLite
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure enrollment_requests table: %w", err)
	}
	s.ensured.Store(true)
	return nil
}

func (s *enrollmentSQLStore) List(ctx context.Context, status string) ([]models.EnrollmentRequest, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM enrollment_requests", enrollmentColumns)
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY submitted_at DESC, id DESC"

	var requests []models.EnrollmentRequest
	if err := s.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollment requests: %w", err)
	}
	return requests, nil
}

func (s *enrollmentSQLStore) GetByID(ctx context.Context, id int64) (models.EnrollmentRequest, error) {
	var request models.EnrollmentRequest
	if err := s.ensure(ctx); err != nil {
		return request, err
	}
	query := fmt.Sprintf("SELECT %s FROM enrollment_requests WHERE id = ?", enrollmentColumns)
	if err := s.db.GetContext(ctx, &request, query, id); err != nil {
		return request, err
	}
	return request, nil
}

func (s *enrollmentSQLStore) Insert(ctx context.Context, request *models.EnrollmentRequest) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	query := `INSERT INTO enrollment_requests
		(student_name, email, phone, course_id, course_name, course_price,
		 payment_method, payment_details, receipt_path, status, request_number,
		 submitted_at, approved_at, notes, welcome_message, contact_link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query,
		request.StudentName, request.Email, request.Phone, request.CourseID,
		request.CourseName, request.CoursePrice, request.PaymentMethod,
		request.PaymentDetails, request.ReceiptPath, request.Status,
		request.RequestNumber, request.SubmittedAt, request.ApprovedAt,
		request.Notes, request.WelcomeMessage, request.ContactLink)
	if err != nil {
		return fmt.Errorf("insert enrollment request: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		request.ID = id
	}
	return nil
}

// Upsert writes the request under its existing id, inserting when absent.
// The SQLite tier uses it to shadow rows served by the primary.
func (s *enrollmentSQLStore) Upsert(ctx context.Context, request models.EnrollmentRequest) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `UPDATE enrollment_requests SET
		student_name = ?, email = ?, phone = ?, course_id = ?, course_name = ?,
		course_price = ?, payment_method = ?, payment_details = ?, receipt_path = ?,
		status = ?, request_number = ?, submitted_at = ?, approved_at = ?,
		notes = ?, welcome_message = ?, contact_link = ? WHERE id = ?`,
		request.StudentName, request.Email, request.Phone, request.CourseID,
		request.CourseName, request.CoursePrice, request.PaymentMethod,
		request.PaymentDetails, request.ReceiptPath, request.Status,
		request.RequestNumber, request.SubmittedAt, request.ApprovedAt,
		request.Notes, request.WelcomeMessage, request.ContactLink, request.ID)
	if err != nil {
		return fmt.Errorf("upsert enrollment request: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO enrollment_requests
		(id, student_name, email, phone, course_id, course_name, course_price,
		 payment_method, payment_details, receipt_path, status, request_number,
		 submitted_at, approved_at, notes, welcome_message, contact_link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID, request.StudentName, request.Email, request.Phone,
		request.CourseID, request.CourseName, request.CoursePrice,
		request.PaymentMethod, request.PaymentDetails, request.ReceiptPath,
		request.Status, request.RequestNumber, request.SubmittedAt,
		request.ApprovedAt, request.Notes, request.WelcomeMessage, request.ContactLink)
	if err != nil {
		return fmt.Errorf("upsert enrollment request: %w", err)
	}
	return nil
}

func (s *enrollmentSQLStore) UpdateStatus(ctx context.Context, request *models.EnrollmentRequest) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `UPDATE enrollment_requests SET
		status = ?, approved_at = ?, notes = ?, welcome_message = ?, contact_link = ?
		WHERE id = ?`,
		request.Status, request.ApprovedAt, request.Notes,
		request.WelcomeMessage, request.ContactLink, request.ID)
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, err := s.GetByID(ctx, request.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *enrollmentSQLStore) Delete(ctx context.Context, id int64) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, "DELETE FROM enrollment_requests WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete enrollment request: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteShadow removes the row without caring whether it existed. Used to
// mirror deletes from higher tiers.
func (s *enrollmentSQLStore) DeleteShadow(ctx context.Context, id int64) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM enrollment_requests WHERE id = ?", id); err != nil {
		return fmt.Errorf("shadow delete enrollment request: %w", err)
	}
	return nil
}

func (s *enrollmentSQLStore) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	if err := s.ensure(ctx); err != nil {
		return 0, err
	}
	var count int
	query := "SELECT COUNT(*) FROM enrollment_requests WHERE course_id = ?"
	if err := s.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count enrollments by course: %w", err)
	}
	return count, nil
}

func (s *enrollmentSQLStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}
	type row struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}
	var rows []row
	query := "SELECT status, COUNT(*) AS cnt FROM enrollment_requests GROUP BY status"
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count enrollments by status: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
