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
	"github.com/almanara-academy/courses-api/pkg/database"
)

const createCoursesTable = `CREATE TABLE IF NOT EXISTS courses (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    course_code VARCHAR(64) NOT NULL UNIQUE,
    title VARCHAR(255) NOT NULL,
    description TEXT,
    credits INT DEFAULT 0,
    duration VARCHAR(128) DEFAULT '',
    instructor VARCHAR(255) DEFAULT '',
    capacity INT DEFAULT 0,
    price VARCHAR(64) DEFAULT '0',
    price_sdg VARCHAR(64) DEFAULT '',
    level VARCHAR(64) DEFAULT '',
    start_date VARCHAR(64) DEFAULT '',
    end_date VARCHAR(64) DEFAULT '',
    status VARCHAR(32) DEFAULT 'active',
    category_id BIGINT NULL,
    category VARCHAR(255) DEFAULT '',
    category_ar VARCHAR(255) DEFAULT '',
    icon VARCHAR(128) DEFAULT '',
    is_featured TINYINT(1) DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
) CHARACTER SET utf8mb4`

// Columns present on every deployment; the probe gates the rest.
var courseBaseColumns = []string{
	"id", "course_code", "title", "description", "credits", "duration",
	"instructor", "capacity", "price", "level", "start_date", "end_date",
	"status", "category", "category_ar", "icon", "created_at", "updated_at",
}

// Optional columns that drifted across legacy deployments.
var courseOptionalColumns = map[string]string{
	"category_id": "BIGINT NULL",
	"price_sdg":   "VARCHAR(64) DEFAULT ''",
	"is_featured": "TINYINT(1) DEFAULT 0",
}

// courseSQLStore serves courses from the primary MySQL tier.
type courseSQLStore struct {
	db      *sqlx.DB
	probe   *database.SchemaProbe
	logger  *zap.Logger
	ensured atomic.Bool
}

func newCourseSQLStore(db *sqlx.DB, probe *database.SchemaProbe, logger *zap.Logger) *courseSQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &courseSQLStore{db: db, probe: probe, logger: logger}
}

// ensure lazily provisions the table; a failed create fails the tier and
// the chain falls through.
func (s *courseSQLStore) ensure(ctx context.Context) error {
	if s.ensured.Load() {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, createCoursesTable); err != nil {
		return fmt.Errorf("ensure courses table: %w", err)
	}
	s.ensured.Store(true)
	return nil
}

// selectColumns builds the SELECT list, probing optional columns so a
// drifted schema narrows the query instead of failing it.
func (s *courseSQLStore) selectColumns(ctx context.Context) []string {
	cols := append([]string{}, courseBaseColumns...)
	for _, optional := range []string{"category_id", "price_sdg", "is_featured"} {
		if s.probe.ColumnExists(ctx, "courses", optional) {
			cols = append(cols, optional)
		}
	}
	return cols
}

func (s *courseSQLStore) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM courses", strings.Join(s.selectColumns(ctx), ", "))
	conditions := []string{}
	args := []interface{}{}
	if filter.Search != "" {
		needle := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, "(LOWER(title) LIKE ? OR LOWER(course_code) LIKE ? OR LOWER(instructor) LIKE ?)")
		args = append(args, needle, needle, needle)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	var courses []models.Course
	if err := s.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	s.attachEnrolledCounts(ctx, courses)
	return courses, nil
}

func (s *courseSQLStore) GetByID(ctx context.Context, id int64) (models.Course, error) {
	var course models.Course
	if err := s.ensure(ctx); err != nil {
		return course, err
	}
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = ?", strings.Join(s.selectColumns(ctx), ", "))
	if err := s.db.GetContext(ctx, &course, query, id); err != nil {
		return course, err
	}
	courses := []models.Course{course}
	s.attachEnrolledCounts(ctx, courses)
	return courses[0], nil
}

func (s *courseSQLStore) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	if err := s.ensure(ctx); err != nil {
		return false, err
	}
	query := "SELECT 1 FROM courses WHERE LOWER(course_code) = LOWER(?)"
	args := []interface{}{code}
	if excludeID > 0 {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := s.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

func (s *courseSQLStore) Insert(ctx context.Context, course *models.Course) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	cols := []string{"course_code", "title", "description", "credits", "duration",
		"instructor", "capacity", "price", "level", "start_date", "end_date",
		"status", "category", "category_ar", "icon", "created_at", "updated_at"}
	args := []interface{}{course.CourseCode, course.Title, course.Description,
		course.Credits, course.Duration, course.Instructor, course.Capacity,
		course.Price, course.Level, course.StartDate, course.EndDate,
		course.Status, course.Category, course.CategoryAr, course.Icon,
		course.CreatedAt, course.UpdatedAt}

	if s.probe.EnsureColumn(ctx, "courses", "category_id", courseOptionalColumns["category_id"]) {
		cols = append(cols, "category_id")
		args = append(args, course.CategoryID)
	}
	if s.probe.EnsureColumn(ctx, "courses", "price_sdg", courseOptionalColumns["price_sdg"]) {
		cols = append(cols, "price_sdg")
		args = append(args, course.PriceSDG)
	}
	if s.probe.EnsureColumn(ctx, "courses", "is_featured", courseOptionalColumns["is_featured"]) {
		cols = append(cols, "is_featured")
		args = append(args, course.IsFeatured)
	}

	query := fmt.Sprintf("INSERT INTO courses (%s) VALUES (%s)",
		strings.Join(cols, ", "), placeholders(len(cols)))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		course.ID = id
	}
	return nil
}

func (s *courseSQLStore) Update(ctx context.Context, course *models.Course) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	course.UpdatedAt = time.Now().UTC()

	sets := []string{"course_code = ?", "title = ?", "description = ?", "credits = ?",
		"duration = ?", "instructor = ?", "capacity = ?", "price = ?", "level = ?",
		"start_date = ?", "end_date = ?", "status = ?", "category = ?",
		"category_ar = ?", "icon = ?", "updated_at = ?"}
	args := []interface{}{course.CourseCode, course.Title, course.Description,
		course.Credits, course.Duration, course.Instructor, course.Capacity,
		course.Price, course.Level, course.StartDate, course.EndDate,
		course.Status, course.Category, course.CategoryAr, course.Icon,
		course.UpdatedAt}

	if s.probe.EnsureColumn(ctx, "courses", "category_id", courseOptionalColumns["category_id"]) {
		sets = append(sets, "category_id = ?")
		args = append(args, course.CategoryID)
	}
	if s.probe.EnsureColumn(ctx, "courses", "price_sdg", courseOptionalColumns["price_sdg"]) {
		sets = append(sets, "price_sdg = ?")
		args = append(args, course.PriceSDG)
	}
	if s.probe.EnsureColumn(ctx, "courses", "is_featured", courseOptionalColumns["is_featured"]) {
		sets = append(sets, "is_featured = ?")
		args = append(args, course.IsFeatured)
	}
	args = append(args, course.ID)

	query := fmt.Sprintf("UPDATE courses SET %s WHERE id = ?", strings.Join(sets, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, err := s.GetByID(ctx, course.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *courseSQLStore) Delete(ctx context.Context, id int64) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, "DELETE FROM courses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// attachEnrolledCounts fills the derived enrolled_count from approved
// requests. Failures leave counts at zero: the enrollments table may not
// exist yet and must not fail a course read.
func (s *courseSQLStore) attachEnrolledCounts(ctx context.Context, courses []models.Course) {
	if len(courses) == 0 {
		return
	}
	type row struct {
		CourseID int64 `db:"course_id"`
		Count    int   `db:"cnt"`
	}
	var rows []row
	query := "SELECT course_id, COUNT(*) AS cnt FROM enrollment_requests WHERE status = ? GROUP BY course_id"
	if err := s.db.SelectContext(ctx, &rows, query, models.EnrollmentStatusApproved); err != nil {
		s.logger.Debug("enrolled count lookup failed", zap.Error(err))
		return
	}
	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.CourseID] = r.Count
	}
	for i := range courses {
		courses[i].EnrolledCount = counts[courses[i].ID]
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
