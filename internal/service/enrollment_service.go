package service

import (
	"context"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, status string) ([]models.EnrollmentRequest, tier.Tier, error)
	GetByID(ctx context.Context, id int64) (models.EnrollmentRequest, tier.Tier, error)
	Create(ctx context.Context, request *models.EnrollmentRequest) (tier.Tier, error)
	UpdateStatus(ctx context.Context, request *models.EnrollmentRequest) (tier.Tier, error)
	Delete(ctx context.Context, id int64) (tier.Tier, error)
}

type courseGetter interface {
	GetByID(ctx context.Context, id int64) (models.Course, tier.Tier, error)
}

type receiptSaver interface {
	Save(header *multipart.FileHeader) (string, error)
}

// SubmitEnrollmentRequest is the public submission payload. CourseID
// arrives as a number from the dashboard and as a string from the public
// form, so it is coerced rather than bound.
type SubmitEnrollmentRequest struct {
	StudentName   string      `json:"student_name" form:"student_name"`
	Email         string      `json:"email" form:"email"`
	Phone         string      `json:"phone" form:"phone"`
	CourseID      interface{} `json:"course_id" form:"course_id"`
	CourseName    string      `json:"course_name" form:"course_name"`
	PaymentMethod string      `json:"payment_method" form:"payment_method"`
	Amount        string      `json:"amount" form:"amount"`
	TransactionID string      `json:"transaction_id" form:"transaction_id"`
	Notes         interface{} `json:"notes" form:"-"`
}

func (r SubmitEnrollmentRequest) courseID() int64 {
	switch v := r.CourseID.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		id, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return id
	default:
		return 0
	}
}

// UpdateEnrollmentStatusRequest carries the admin transition action.
type UpdateEnrollmentStatusRequest struct {
	ID             int64  `json:"id"`
	Status         string `json:"status"`
	Notes          string `json:"notes"`
	WelcomeMessage string `json:"welcome_message"`
	ContactLink    string `json:"contact_link"`
}

// EnrollmentService implements the enrollment request lifecycle.
type EnrollmentService struct {
	enrollments enrollmentRepository
	courses     courseGetter
	receipts    receiptSaver
	logger      *zap.Logger
}

func NewEnrollmentService(enrollments enrollmentRepository, courses courseGetter, receipts receiptSaver, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		courses:     courses,
		receipts:    receipts,
		logger:      logger,
	}
}

// List returns enrollment requests newest first, optionally narrowed to a
// lifecycle status.
func (s *EnrollmentService) List(ctx context.Context, status string) ([]models.EnrollmentRequest, tier.Tier, error) {
	return s.enrollments.List(ctx, status)
}

// Get returns one enrollment request.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (models.EnrollmentRequest, tier.Tier, error) {
	request, served, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		return request, served, notFoundOr(err, "طلب التسجيل غير موجود")
	}
	return request, served, nil
}

// Submit records a public enrollment. The course name and price are
// snapshotted at submission time. A failed receipt upload is logged and the
// submission proceeds without it.
func (s *EnrollmentService) Submit(ctx context.Context, req SubmitEnrollmentRequest, receipt *multipart.FileHeader) (models.EnrollmentRequest, tier.Tier, error) {
	name := strings.TrimSpace(req.StudentName)
	email := strings.TrimSpace(req.Email)
	courseID := req.courseID()
	if name == "" || email == "" || courseID <= 0 {
		return models.EnrollmentRequest{}, "", appErrors.Clone(appErrors.ErrValidation, "الاسم والبريد الإلكتروني والدورة مطلوبة")
	}

	courseName := strings.TrimSpace(req.CourseName)
	coursePrice := ""
	if course, _, err := s.courses.GetByID(ctx, courseID); err == nil {
		if courseName == "" {
			courseName = course.Title
		}
		coursePrice = course.Price
	} else if courseName == "" {
		return models.EnrollmentRequest{}, "", appErrors.Clone(appErrors.ErrValidation, "الدورة المطلوبة غير موجودة")
	}

	request := models.EnrollmentRequest{
		StudentName:   name,
		Email:         email,
		Phone:         strings.TrimSpace(req.Phone),
		CourseID:      courseID,
		CourseName:    courseName,
		CoursePrice:   coursePrice,
		PaymentMethod: req.PaymentMethod,
		Status:        models.EnrollmentStatusPending,
		RequestNumber: models.NewRequestNumber(),
		SubmittedAt:   time.Now().UTC(),
	}
	if req.Amount != "" || req.TransactionID != "" {
		request.PaymentDetails = models.FlexibleDocFrom(models.PaymentDetails{
			Amount:        models.SanitizePrice(req.Amount),
			TransactionID: req.TransactionID,
		})
	}
	if req.Notes != nil {
		request.Notes = models.FlexibleDocFrom(req.Notes)
	}

	if receipt != nil && s.receipts != nil {
		path, err := s.receipts.Save(receipt)
		if err != nil {
			s.logger.Warn("receipt upload failed, recording enrollment without it",
				zap.String("filename", receipt.Filename), zap.Error(err))
		} else {
			request.ReceiptPath = path
		}
	}

	served, err := s.enrollments.Create(ctx, &request)
	if err != nil {
		return models.EnrollmentRequest{}, served, err
	}
	return request, served, nil
}

// UpdateStatus applies an admin transition. Approval stamps the timestamp
// and attaches the welcome message and outreach link.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, req UpdateEnrollmentStatusRequest) (models.EnrollmentRequest, tier.Tier, error) {
	if req.ID <= 0 {
		return models.EnrollmentRequest{}, "", appErrors.Clone(appErrors.ErrValidation, "معرف الطلب مطلوب")
	}
	switch req.Status {
	case models.EnrollmentStatusPending, models.EnrollmentStatusApproved, models.EnrollmentStatusRejected:
	default:
		return models.EnrollmentRequest{}, "", appErrors.Clone(appErrors.ErrValidation, "حالة الطلب غير صالحة")
	}

	request, served, err := s.enrollments.GetByID(ctx, req.ID)
	if err != nil {
		return models.EnrollmentRequest{}, served, notFoundOr(err, "طلب التسجيل غير موجود")
	}

	request.Status = req.Status
	if req.Notes != "" {
		request.Notes = models.NewFlexibleDoc(req.Notes)
	}
	if req.Status == models.EnrollmentStatusApproved {
		now := time.Now().UTC()
		request.ApprovedAt = &now
		request.WelcomeMessage = req.WelcomeMessage
		request.ContactLink = req.ContactLink
	} else {
		request.ApprovedAt = nil
	}

	served, err = s.enrollments.UpdateStatus(ctx, &request)
	if err != nil {
		return models.EnrollmentRequest{}, served, notFoundOr(err, "طلب التسجيل غير موجود")
	}
	return request, served, nil
}

// Delete removes a request from every tier holding a copy.
func (s *EnrollmentService) Delete(ctx context.Context, id int64) (tier.Tier, error) {
	if _, served, err := s.enrollments.GetByID(ctx, id); err != nil {
		return served, notFoundOr(err, "طلب التسجيل غير موجود")
	}
	served, err := s.enrollments.Delete(ctx, id)
	if err != nil {
		return served, notFoundOr(err, "طلب التسجيل غير موجود")
	}
	return served, nil
}
