package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
)

type categoryRepository interface {
	List(ctx context.Context) ([]models.Category, tier.Tier, error)
	GetByID(ctx context.Context, id int64) (models.Category, tier.Tier, error)
	ExistsByName(ctx context.Context, name, nameAr string, excludeID int64) (bool, tier.Tier, error)
	Create(ctx context.Context, category *models.Category) (tier.Tier, error)
	Update(ctx context.Context, category *models.Category) (tier.Tier, error)
	Delete(ctx context.Context, id int64) (tier.Tier, error)
}

type courseLister interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, tier.Tier, error)
}

// CategoryRequest is the bilingual category payload.
type CategoryRequest struct {
	ID           int64  `json:"id"`
	Name         string `json:"category_name"`
	NameAr       string `json:"category_name_ar"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	DisplayOrder int    `json:"display_order"`
	Active       *bool  `json:"is_active"`
}

// CategoryDetail pairs a category with the courses belonging to it.
type CategoryDetail struct {
	Category models.Category `json:"category"`
	Courses  []models.Course `json:"courses"`
}

// CategoryService implements category use-cases. Course counts are derived
// in-process so they stay correct no matter which tier served either list.
type CategoryService struct {
	categories categoryRepository
	courses    courseLister
	logger     *zap.Logger
}

func NewCategoryService(categories categoryRepository, courses courseLister, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categories: categories, courses: courses, logger: logger}
}

// List returns all categories with derived course counts. A course counts
// toward a category when the relational id matches or the legacy text
// matches either language name; a row satisfying both counts once.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, tier.Tier, error) {
	categories, served, err := s.categories.List(ctx)
	if err != nil {
		return nil, served, err
	}
	s.attachCourseCounts(ctx, categories)
	return categories, served, nil
}

// Get returns one category with its counted courses.
func (s *CategoryService) Get(ctx context.Context, id int64) (CategoryDetail, tier.Tier, error) {
	category, served, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return CategoryDetail{}, served, notFoundOr(err, "التصنيف غير موجود")
	}
	courses := s.coursesOf(ctx, category)
	category.CoursesCount = len(courses)
	return CategoryDetail{Category: category, Courses: courses}, served, nil
}

// Create registers a new category.
func (s *CategoryService) Create(ctx context.Context, req CategoryRequest) (models.Category, tier.Tier, error) {
	name := strings.TrimSpace(req.Name)
	nameAr := strings.TrimSpace(req.NameAr)
	if name == "" || nameAr == "" {
		return models.Category{}, "", appErrors.Clone(appErrors.ErrValidation, "اسم التصنيف مطلوب باللغتين")
	}

	exists, served, err := s.categories.ExistsByName(ctx, name, nameAr, 0)
	if err != nil {
		return models.Category{}, served, err
	}
	if exists {
		return models.Category{}, served, appErrors.Clone(appErrors.ErrDuplicate, "التصنيف موجود مسبقاً")
	}

	category := buildCategory(req)
	served, err = s.categories.Create(ctx, &category)
	if err != nil {
		return models.Category{}, served, err
	}
	return category, served, nil
}

// Update modifies an existing category.
func (s *CategoryService) Update(ctx context.Context, req CategoryRequest) (models.Category, tier.Tier, error) {
	name := strings.TrimSpace(req.Name)
	nameAr := strings.TrimSpace(req.NameAr)
	if req.ID <= 0 || name == "" || nameAr == "" {
		return models.Category{}, "", appErrors.Clone(appErrors.ErrValidation, "المعرف واسم التصنيف مطلوبان")
	}

	existing, served, err := s.categories.GetByID(ctx, req.ID)
	if err != nil {
		return models.Category{}, served, notFoundOr(err, "التصنيف غير موجود")
	}
	exists, served, err := s.categories.ExistsByName(ctx, name, nameAr, req.ID)
	if err != nil {
		return models.Category{}, served, err
	}
	if exists {
		return models.Category{}, served, appErrors.Clone(appErrors.ErrDuplicate, "التصنيف موجود مسبقاً")
	}

	category := buildCategory(req)
	category.ID = req.ID
	category.CreatedAt = existing.CreatedAt
	served, err = s.categories.Update(ctx, &category)
	if err != nil {
		return models.Category{}, served, notFoundOr(err, "التصنيف غير موجود")
	}
	return category, served, nil
}

// Delete removes a category unless any course still belongs to it, by
// either matching path.
func (s *CategoryService) Delete(ctx context.Context, id int64) (tier.Tier, error) {
	category, served, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return served, notFoundOr(err, "التصنيف غير موجود")
	}
	if count := len(s.coursesOf(ctx, category)); count > 0 {
		return served, appErrors.Clone(appErrors.ErrHasDependents, "لا يمكن حذف التصنيف لوجود دورات مرتبطة به")
	}
	served, err = s.categories.Delete(ctx, id)
	if err != nil {
		return served, notFoundOr(err, "التصنيف غير موجود")
	}
	return served, nil
}

func buildCategory(req CategoryRequest) models.Category {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return models.Category{
		Name:         strings.TrimSpace(req.Name),
		NameAr:       strings.TrimSpace(req.NameAr),
		Description:  req.Description,
		Icon:         req.Icon,
		Color:        req.Color,
		DisplayOrder: req.DisplayOrder,
		Active:       active,
	}
}

func (s *CategoryService) attachCourseCounts(ctx context.Context, categories []models.Category) {
	courses, _, err := s.courses.List(ctx, models.CourseFilter{Status: models.CourseStatusActive})
	if err != nil {
		s.logger.Debug("course lookup failed, counts stay zero", zap.Error(err))
		return
	}
	for i := range categories {
		count := 0
		for _, course := range courses {
			if categories[i].MatchesCourse(course) {
				count++
			}
		}
		categories[i].CoursesCount = count
	}
}

func (s *CategoryService) coursesOf(ctx context.Context, category models.Category) []models.Course {
	courses, _, err := s.courses.List(ctx, models.CourseFilter{Status: models.CourseStatusActive})
	if err != nil {
		s.logger.Debug("course lookup failed", zap.Error(err))
		return nil
	}
	matched := courses[:0:0]
	for _, course := range courses {
		if category.MatchesCourse(course) {
			matched = append(matched, course)
		}
	}
	return matched
}
