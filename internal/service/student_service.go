package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, search string) ([]models.Student, error)
	GetByID(ctx context.Context, id int64) (models.Student, error)
	ExistsByNumber(ctx context.Context, number string, excludeID int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// StudentRequest is the roster payload.
type StudentRequest struct {
	StudentNumber  string `json:"student_id" validate:"required"`
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone"`
	BirthDate      string `json:"date_of_birth"`
	Gender         string `json:"gender"`
	Address        string `json:"address"`
	EnrollmentDate string `json:"enrollment_date"`
	Status         string `json:"status"`
}

// StudentService handles roster use-cases. The roster lives on the primary
// store only, so these calls fail outright when it is unreachable.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

func (s *StudentService) List(ctx context.Context, search string) ([]models.Student, error) {
	students, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "تعذر تحميل قائمة الطلاب")
	}
	return students, nil
}

func (s *StudentService) Get(ctx context.Context, id int64) (models.Student, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return student, appErrors.Clone(appErrors.ErrNotFound, "الطالب غير موجود")
		}
		return student, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "تعذر تحميل بيانات الطالب")
	}
	return student, nil
}

func (s *StudentService) Create(ctx context.Context, req StudentRequest) (models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Student{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "بيانات الطالب غير مكتملة")
	}
	if err := s.checkUniqueness(ctx, req, 0); err != nil {
		return models.Student{}, err
	}

	student := buildStudent(req)
	if err := s.repo.Create(ctx, &student); err != nil {
		return models.Student{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "تعذر إنشاء الطالب")
	}
	return student, nil
}

func (s *StudentService) Update(ctx context.Context, id int64, req StudentRequest) (models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Student{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "بيانات الطالب غير مكتملة")
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return models.Student{}, appErrors.Clone(appErrors.ErrNotFound, "الطالب غير موجود")
		}
		return models.Student{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "تعذر تحميل بيانات الطالب")
	}
	if err := s.checkUniqueness(ctx, req, id); err != nil {
		return models.Student{}, err
	}

	student := buildStudent(req)
	student.ID = id
	student.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, &student); err != nil {
		return models.Student{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "تعذر تحديث بيانات الطالب")
	}
	return student, nil
}

func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "الطالب غير موجود")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "تعذر حذف الطالب")
	}
	return nil
}

func (s *StudentService) checkUniqueness(ctx context.Context, req StudentRequest, excludeID int64) error {
	exists, err := s.repo.ExistsByNumber(ctx, req.StudentNumber, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "تعذر التحقق من رقم الطالب")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrDuplicate, "رقم الطالب مستخدم مسبقاً")
	}
	exists, err = s.repo.ExistsByEmail(ctx, req.Email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "تعذر التحقق من البريد الإلكتروني")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrDuplicate, "البريد الإلكتروني مستخدم مسبقاً")
	}
	return nil
}

func buildStudent(req StudentRequest) models.Student {
	status := req.Status
	if status == "" {
		status = models.StudentStatusActive
	}
	return models.Student{
		StudentNumber:  req.StudentNumber,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		BirthDate:      req.BirthDate,
		Gender:         req.Gender,
		Address:        req.Address,
		EnrollmentDate: req.EnrollmentDate,
		Status:         status,
	}
}
