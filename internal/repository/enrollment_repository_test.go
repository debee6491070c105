package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestEnrollmentCreateFallsToFileWhenPrimaryDown(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS enrollment_requests").
		WillReturnError(errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"))

	repo := NewEnrollmentRepository(db, nil, t.TempDir(), zap.NewNop(), nil)

	request := &models.EnrollmentRequest{
		StudentName:   "خالد حسن",
		Email:         "khaled@example.com",
		CourseID:      3,
		Status:        models.EnrollmentStatusPending,
		RequestNumber: models.NewRequestNumber(),
		SubmittedAt:   time.Now().UTC(),
	}
	served, err := repo.Create(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, tier.File, served)
	assert.Equal(t, int64(1), request.ID)

	got, _, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "خالد حسن", got.StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentNotFoundDoesNotResurrectShadow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS enrollment_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM enrollment_requests WHERE id").
		WithArgs(int64(11)).
		WillReturnError(sql.ErrNoRows)

	repo := NewEnrollmentRepository(db, nil, t.TempDir(), zap.NewNop(), nil)

	// A stale shadow of a row the primary already deleted.
	require.NoError(t, repo.file.Upsert(models.EnrollmentRequest{
		ID: 11, StudentName: "stale", Email: "stale@example.com",
		Status: models.EnrollmentStatusPending, SubmittedAt: time.Now().UTC(),
	}))

	_, served, err := repo.GetByID(context.Background(), 11)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, tier.MySQL, served, "the primary's answer is final")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentDeleteMirrorsIntoFileShadow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS enrollment_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM enrollment_requests WHERE id").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewEnrollmentRepository(db, nil, t.TempDir(), zap.NewNop(), nil)
	require.NoError(t, repo.file.Upsert(models.EnrollmentRequest{
		ID: 5, StudentName: "x", Email: "x@example.com",
		Status: models.EnrollmentStatusApproved, SubmittedAt: time.Now().UTC(),
	}))

	served, err := repo.Delete(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, tier.MySQL, served)

	_, err = repo.file.GetByID(5)
	assert.ErrorIs(t, err, sql.ErrNoRows, "shadow copy must be removed with the primary row")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateShadowsIntoFile(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS enrollment_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO enrollment_requests").
		WillReturnResult(sqlmock.NewResult(21, 1))

	repo := NewEnrollmentRepository(db, nil, t.TempDir(), zap.NewNop(), nil)

	request := &models.EnrollmentRequest{
		StudentName:   "منى",
		Email:         "muna@example.com",
		CourseID:      2,
		Status:        models.EnrollmentStatusPending,
		RequestNumber: models.NewRequestNumber(),
		SubmittedAt:   time.Now().UTC(),
	}
	served, err := repo.Create(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, tier.MySQL, served)
	assert.Equal(t, int64(21), request.ID)

	shadow, err := repo.file.GetByID(21)
	require.NoError(t, err)
	assert.Equal(t, "منى", shadow.StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}
