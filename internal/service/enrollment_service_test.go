package service

import (
	"context"
	"database/sql"
	"errors"
	"mime/multipart"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	requests map[int64]models.EnrollmentRequest
	nextID   int64
	deleted  []int64
}

func (m *mockEnrollmentRepo) List(ctx context.Context, status string) ([]models.EnrollmentRequest, tier.Tier, error) {
	out := make([]models.EnrollmentRequest, 0, len(m.requests))
	for _, r := range m.requests {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return out, tier.MySQL, nil
}

func (m *mockEnrollmentRepo) GetByID(ctx context.Context, id int64) (models.EnrollmentRequest, tier.Tier, error) {
	if r, ok := m.requests[id]; ok {
		return r, tier.MySQL, nil
	}
	return models.EnrollmentRequest{}, tier.MySQL, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, request *models.EnrollmentRequest) (tier.Tier, error) {
	if m.requests == nil {
		m.requests = make(map[int64]models.EnrollmentRequest)
	}
	m.nextID++
	request.ID = m.nextID
	m.requests[request.ID] = *request
	return tier.MySQL, nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, request *models.EnrollmentRequest) (tier.Tier, error) {
	if _, ok := m.requests[request.ID]; !ok {
		return tier.MySQL, sql.ErrNoRows
	}
	m.requests[request.ID] = *request
	return tier.MySQL, nil
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, id int64) (tier.Tier, error) {
	if _, ok := m.requests[id]; !ok {
		return tier.MySQL, sql.ErrNoRows
	}
	delete(m.requests, id)
	m.deleted = append(m.deleted, id)
	return tier.MySQL, nil
}

type stubReceiptSaver struct {
	path  string
	err   error
	saved []string
}

func (s *stubReceiptSaver) Save(header *multipart.FileHeader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, header.Filename)
	return s.path, nil
}

var requestNumberPattern = regexp.MustCompile(`^REQ-\d+-\d+$`)

func catalogWith(courses ...models.Course) *mockCourseRepo {
	repo := &mockCourseRepo{courses: make(map[int64]models.Course)}
	for _, c := range courses {
		repo.courses[c.ID] = c
		if c.ID > repo.nextID {
			repo.nextID = c.ID
		}
	}
	return repo
}

func TestEnrollmentServiceSubmitDefaults(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses := catalogWith(models.Course{ID: 5, Title: "Go Basics", Price: "150"})
	svc := NewEnrollmentService(repo, courses, nil, zap.NewNop())

	created, served, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		StudentName: "أحمد محمد",
		Email:       "ahmed@example.com",
		CourseID:    "5",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, tier.MySQL, served)
	assert.Equal(t, models.EnrollmentStatusPending, created.Status)
	assert.Regexp(t, requestNumberPattern, created.RequestNumber)
	assert.Equal(t, "Go Basics", created.CourseName)
	assert.Equal(t, "150", created.CoursePrice)
	assert.False(t, created.SubmittedAt.IsZero())
	assert.Nil(t, created.ApprovedAt)
}

func TestEnrollmentServiceSubmitCourseIDForms(t *testing.T) {
	courses := catalogWith(models.Course{ID: 5, Title: "Go Basics"})
	for _, id := range []interface{}{float64(5), int64(5), 5, "5", " 5 "} {
		repo := &mockEnrollmentRepo{}
		svc := NewEnrollmentService(repo, courses, nil, zap.NewNop())

		created, _, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
			StudentName: "Sara",
			Email:       "sara@example.com",
			CourseID:    id,
		}, nil)
		require.NoError(t, err, "course_id form %v", id)
		assert.Equal(t, int64(5), created.CourseID)
	}
}

func TestEnrollmentServiceSubmitValidation(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, catalogWith(), nil, zap.NewNop())

	cases := []SubmitEnrollmentRequest{
		{Email: "a@b.c", CourseID: 1},
		{StudentName: "Sara", CourseID: 1},
		{StudentName: "Sara", Email: "a@b.c"},
		{StudentName: "Sara", Email: "a@b.c", CourseID: "abc"},
	}
	for _, req := range cases {
		_, _, err := svc.Submit(context.Background(), req, nil)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestEnrollmentServiceSubmitUnknownCourseWithProvidedName(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := NewEnrollmentService(repo, catalogWith(), nil, zap.NewNop())

	created, _, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		StudentName: "Sara",
		Email:       "sara@example.com",
		CourseID:    9,
		CourseName:  "دورة قديمة",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "دورة قديمة", created.CourseName)

	_, _, err = svc.Submit(context.Background(), SubmitEnrollmentRequest{
		StudentName: "Sara",
		Email:       "sara@example.com",
		CourseID:    9,
	}, nil)
	require.Error(t, err)
}

func TestEnrollmentServiceSubmitPaymentWithoutTransactionID(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses := catalogWith(models.Course{ID: 5, Title: "Go Basics"})
	svc := NewEnrollmentService(repo, courses, nil, zap.NewNop())

	created, _, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		StudentName:   "Sara",
		Email:         "sara@example.com",
		CourseID:      5,
		PaymentMethod: "bankak",
		Amount:        "150 SDG",
	}, nil)
	require.NoError(t, err)

	var details models.PaymentDetails
	require.True(t, created.PaymentDetails.Decode(&details))
	assert.Equal(t, "150", details.Amount)
	assert.Empty(t, details.TransactionID)
}

func TestEnrollmentServiceSubmitReceiptFailureNonFatal(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses := catalogWith(models.Course{ID: 5, Title: "Go Basics"})
	receipts := &stubReceiptSaver{err: errors.New("disk full")}
	svc := NewEnrollmentService(repo, courses, receipts, zap.NewNop())

	created, _, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		StudentName: "Sara",
		Email:       "sara@example.com",
		CourseID:    5,
	}, &multipart.FileHeader{Filename: "receipt.jpg"})
	require.NoError(t, err)
	assert.Empty(t, created.ReceiptPath)
	assert.Equal(t, 1, len(repo.requests))
}

func TestEnrollmentServiceSubmitStoresReceiptPath(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	courses := catalogWith(models.Course{ID: 5, Title: "Go Basics"})
	receipts := &stubReceiptSaver{path: "uploads/receipts/abc.jpg"}
	svc := NewEnrollmentService(repo, courses, receipts, zap.NewNop())

	created, _, err := svc.Submit(context.Background(), SubmitEnrollmentRequest{
		StudentName: "Sara",
		Email:       "sara@example.com",
		CourseID:    5,
	}, &multipart.FileHeader{Filename: "receipt.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "uploads/receipts/abc.jpg", created.ReceiptPath)
	assert.Equal(t, []string{"receipt.jpg"}, receipts.saved)
}

func TestEnrollmentServiceApprove(t *testing.T) {
	repo := &mockEnrollmentRepo{requests: map[int64]models.EnrollmentRequest{
		7: {ID: 7, StudentName: "Sara", Status: models.EnrollmentStatusPending},
	}, nextID: 7}
	svc := NewEnrollmentService(repo, catalogWith(), nil, zap.NewNop())

	updated, _, err := svc.UpdateStatus(context.Background(), UpdateEnrollmentStatusRequest{
		ID:             7,
		Status:         models.EnrollmentStatusApproved,
		WelcomeMessage: "أهلاً بك في الدورة",
		ContactLink:    "https://t.me/almanara",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, updated.Status)
	require.NotNil(t, updated.ApprovedAt)
	assert.Equal(t, "أهلاً بك في الدورة", updated.WelcomeMessage)
	assert.Equal(t, "https://t.me/almanara", updated.ContactLink)
}

func TestEnrollmentServiceRejectClearsApproval(t *testing.T) {
	repo := &mockEnrollmentRepo{requests: map[int64]models.EnrollmentRequest{
		7: {ID: 7, Status: models.EnrollmentStatusApproved},
	}, nextID: 7}
	svc := NewEnrollmentService(repo, catalogWith(), nil, zap.NewNop())

	updated, _, err := svc.UpdateStatus(context.Background(), UpdateEnrollmentStatusRequest{
		ID:     7,
		Status: models.EnrollmentStatusRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRejected, updated.Status)
	assert.Nil(t, updated.ApprovedAt)
}

func TestEnrollmentServiceUpdateStatusValidation(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, catalogWith(), nil, zap.NewNop())

	_, _, err := svc.UpdateStatus(context.Background(), UpdateEnrollmentStatusRequest{Status: "approved"})
	require.Error(t, err)

	_, _, err = svc.UpdateStatus(context.Background(), UpdateEnrollmentStatusRequest{ID: 7, Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDelete(t *testing.T) {
	repo := &mockEnrollmentRepo{requests: map[int64]models.EnrollmentRequest{
		7: {ID: 7},
	}}
	svc := NewEnrollmentService(repo, catalogWith(), nil, zap.NewNop())

	_, err := svc.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, int64(7))

	_, err = svc.Delete(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
