package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, tier.Tier, error)
	GetByID(ctx context.Context, id int64) (models.Course, tier.Tier, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, tier.Tier, error)
	Create(ctx context.Context, course *models.Course) (tier.Tier, error)
	Update(ctx context.Context, course *models.Course) (tier.Tier, error)
	Delete(ctx context.Context, id int64) (tier.Tier, error)
}

type enrollmentCounter interface {
	CountByCourse(ctx context.Context, courseID int64) (int, tier.Tier, error)
}

type categoryLister interface {
	List(ctx context.Context) ([]models.Category, tier.Tier, error)
}

// CourseRequest is the flexible payload the dashboard sends. Title may
// arrive under either key, is_featured in any legacy truthy form and price
// with currency noise; the service normalizes all three.
type CourseRequest struct {
	ID          int64       `json:"id"`
	CourseCode  string      `json:"course_code"`
	Title       string      `json:"title"`
	CourseName  string      `json:"course_name"`
	Description string      `json:"description"`
	Credits     int         `json:"credits"`
	Duration    string      `json:"duration"`
	Instructor  string      `json:"instructor"`
	Capacity    int         `json:"capacity"`
	Price       interface{} `json:"price"`
	PriceSDG    interface{} `json:"price_sdg"`
	Level       string      `json:"level"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	Status      string      `json:"status"`
	CategoryID  *int64      `json:"category_id"`
	Category    string      `json:"category"`
	CategoryAr  string      `json:"category_ar"`
	Icon        string      `json:"icon"`
	IsFeatured  interface{} `json:"is_featured"`
}

func (r CourseRequest) title() string {
	if strings.TrimSpace(r.Title) != "" {
		return strings.TrimSpace(r.Title)
	}
	return strings.TrimSpace(r.CourseName)
}

// CourseService implements the course use-cases over the tiered gateway.
type CourseService struct {
	courses     courseRepository
	categories  categoryLister
	enrollments enrollmentCounter
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewCourseService(courses courseRepository, categories categoryLister, enrollments enrollmentCounter, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:     courses,
		categories:  categories,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger,
	}
}

// List returns courses from the first available tier, with category labels
// resolved against the known category list.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, tier.Tier, error) {
	courses, served, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, served, err
	}
	categories := s.loadCategories(ctx)
	if filter.CategoryID > 0 {
		courses = filterByCategory(courses, categories, filter.CategoryID)
	}
	resolveCategoryLabels(courses, categories)
	return courses, served, nil
}

// Get returns one course by id.
func (s *CourseService) Get(ctx context.Context, id int64) (models.Course, tier.Tier, error) {
	course, served, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return course, served, notFoundOr(err, "الدورة غير موجودة")
	}
	resolveCategoryLabels([]models.Course{course}, s.loadCategories(ctx))
	return course, served, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (models.Course, tier.Tier, error) {
	code := strings.TrimSpace(req.CourseCode)
	title := req.title()
	if code == "" || title == "" {
		return models.Course{}, "", appErrors.Clone(appErrors.ErrValidation, "رمز الدورة والعنوان مطلوبان")
	}

	exists, served, err := s.courses.ExistsByCode(ctx, code, 0)
	if err != nil {
		return models.Course{}, served, err
	}
	if exists {
		return models.Course{}, served, appErrors.Clone(appErrors.ErrDuplicate, "رمز الدورة مستخدم مسبقاً")
	}

	course := s.buildCourse(req)
	course.CourseCode = code
	course.Title = title
	served, err = s.courses.Create(ctx, &course)
	if err != nil {
		return models.Course{}, served, err
	}
	return course, served, nil
}

// Update modifies an existing course. The id travels in the payload, not
// the path, matching the dashboard contract.
func (s *CourseService) Update(ctx context.Context, req CourseRequest) (models.Course, tier.Tier, error) {
	title := req.title()
	if req.ID <= 0 || title == "" {
		return models.Course{}, "", appErrors.Clone(appErrors.ErrValidation, "المعرف والعنوان مطلوبان")
	}

	existing, served, err := s.courses.GetByID(ctx, req.ID)
	if err != nil {
		return models.Course{}, served, notFoundOr(err, "الدورة غير موجودة")
	}

	code := strings.TrimSpace(req.CourseCode)
	if code == "" {
		code = existing.CourseCode
	}
	exists, served, err := s.courses.ExistsByCode(ctx, code, req.ID)
	if err != nil {
		return models.Course{}, served, err
	}
	if exists {
		return models.Course{}, served, appErrors.Clone(appErrors.ErrDuplicate, "رمز الدورة مستخدم مسبقاً")
	}

	course := s.buildCourse(req)
	course.ID = req.ID
	course.CourseCode = code
	course.Title = title
	course.CreatedAt = existing.CreatedAt
	served, err = s.courses.Update(ctx, &course)
	if err != nil {
		return models.Course{}, served, notFoundOr(err, "الدورة غير موجودة")
	}
	return course, served, nil
}

// Delete removes a course unless enrollment requests reference it. Any
// enrollment row blocks the delete regardless of its status.
func (s *CourseService) Delete(ctx context.Context, id int64) (tier.Tier, error) {
	if _, served, err := s.courses.GetByID(ctx, id); err != nil {
		return served, notFoundOr(err, "الدورة غير موجودة")
	}
	count, served, err := s.enrollments.CountByCourse(ctx, id)
	if err != nil {
		return served, err
	}
	if count > 0 {
		return served, appErrors.Clone(appErrors.ErrHasDependents, "لا يمكن حذف الدورة لوجود طلبات تسجيل مرتبطة بها")
	}
	served, err = s.courses.Delete(ctx, id)
	if err != nil {
		return served, notFoundOr(err, "الدورة غير موجودة")
	}
	return served, nil
}

func (s *CourseService) buildCourse(req CourseRequest) models.Course {
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.CourseStatusActive
	}
	return models.Course{
		Description: req.Description,
		Credits:     req.Credits,
		Duration:    req.Duration,
		Instructor:  req.Instructor,
		Capacity:    req.Capacity,
		Price:       models.SanitizePrice(stringify(req.Price)),
		PriceSDG:    models.SanitizePrice(stringify(req.PriceSDG)),
		Level:       req.Level,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      status,
		CategoryID:  req.CategoryID,
		Category:    req.Category,
		CategoryAr:  req.CategoryAr,
		Icon:        req.Icon,
		IsFeatured:  models.CoerceBool(req.IsFeatured),
	}
}

func (s *CourseService) loadCategories(ctx context.Context) []models.Category {
	categories, _, err := s.categories.List(ctx)
	if err != nil {
		s.logger.Debug("category lookup failed, labels stay unresolved", zap.Error(err))
		return nil
	}
	return categories
}

func resolveCategoryLabels(courses []models.Course, categories []models.Category) {
	if len(categories) == 0 {
		return
	}
	for i := range courses {
		text := courses[i].Category
		if text == "" {
			text = courses[i].CategoryAr
		}
		courses[i].Category = models.ResolveCategoryLabel(categories, courses[i].CategoryID, text)
	}
}

func filterByCategory(courses []models.Course, categories []models.Category, categoryID int64) []models.Course {
	var match *models.Category
	for i := range categories {
		if categories[i].ID == categoryID {
			match = &categories[i]
			break
		}
	}
	if match == nil {
		return nil
	}
	kept := courses[:0:0]
	for _, c := range courses {
		if match.MatchesCourse(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

// notFoundOr maps a no-rows outcome to a localized 404 and leaves other
// errors untouched.
func notFoundOr(err error, message string) error {
	if isNoRows(err) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return err
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
