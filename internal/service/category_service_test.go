package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
)

type mockCategoryRepo struct {
	categories map[int64]models.Category
	nextID     int64
	deleted    []int64
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]models.Category, tier.Tier, error) {
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, tier.MySQL, nil
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, id int64) (models.Category, tier.Tier, error) {
	if c, ok := m.categories[id]; ok {
		return c, tier.MySQL, nil
	}
	return models.Category{}, tier.MySQL, sql.ErrNoRows
}

func (m *mockCategoryRepo) ExistsByName(ctx context.Context, name, nameAr string, excludeID int64) (bool, tier.Tier, error) {
	for _, c := range m.categories {
		if c.ID == excludeID {
			continue
		}
		if strings.EqualFold(c.Name, name) || strings.EqualFold(c.NameAr, nameAr) {
			return true, tier.MySQL, nil
		}
	}
	return false, tier.MySQL, nil
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *models.Category) (tier.Tier, error) {
	if m.categories == nil {
		m.categories = make(map[int64]models.Category)
	}
	m.nextID++
	category.ID = m.nextID
	m.categories[category.ID] = *category
	return tier.MySQL, nil
}

func (m *mockCategoryRepo) Update(ctx context.Context, category *models.Category) (tier.Tier, error) {
	if _, ok := m.categories[category.ID]; !ok {
		return tier.MySQL, sql.ErrNoRows
	}
	m.categories[category.ID] = *category
	return tier.MySQL, nil
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id int64) (tier.Tier, error) {
	if _, ok := m.categories[id]; !ok {
		return tier.MySQL, sql.ErrNoRows
	}
	delete(m.categories, id)
	m.deleted = append(m.deleted, id)
	return tier.MySQL, nil
}

type mockCourseLister struct {
	courses []models.Course
	err     error
}

func (m *mockCourseLister) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, tier.Tier, error) {
	if m.err != nil {
		return nil, tier.MySQL, m.err
	}
	out := make([]models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	return out, tier.MySQL, nil
}

func TestCategoryServiceCreate(t *testing.T) {
	repo := &mockCategoryRepo{}
	svc := NewCategoryService(repo, &mockCourseLister{}, zap.NewNop())

	created, _, err := svc.Create(context.Background(), CategoryRequest{
		Name:   "Tech",
		NameAr: "تقنية",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.True(t, created.Active)
	assert.Equal(t, "تقنية", created.NameAr)
}

func TestCategoryServiceCreateRequiresBothNames(t *testing.T) {
	svc := NewCategoryService(&mockCategoryRepo{}, &mockCourseLister{}, zap.NewNop())

	_, _, err := svc.Create(context.Background(), CategoryRequest{Name: "Tech"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Create(context.Background(), CategoryRequest{NameAr: "تقنية"})
	require.Error(t, err)
}

func TestCategoryServiceCreateDuplicateName(t *testing.T) {
	repo := &mockCategoryRepo{categories: map[int64]models.Category{
		1: {ID: 1, Name: "Tech", NameAr: "تقنية"},
	}, nextID: 1}
	svc := NewCategoryService(repo, &mockCourseLister{}, zap.NewNop())

	_, _, err := svc.Create(context.Background(), CategoryRequest{Name: "tech", NameAr: "أخرى"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestCategoryServiceCountsWithoutDoubleCounting(t *testing.T) {
	catID := int64(1)
	repo := &mockCategoryRepo{categories: map[int64]models.Category{
		1: {ID: 1, Name: "Technology", NameAr: "تقنية"},
		2: {ID: 2, Name: "Arts", NameAr: "فنون"},
	}}
	// The first course matches by id AND carries matching text; it must
	// count once. The second matches by Arabic text only, the third by
	// English text only, the fourth belongs elsewhere.
	courses := &mockCourseLister{courses: []models.Course{
		{ID: 10, Status: "active", CategoryID: &catID, Category: "Technology"},
		{ID: 11, Status: "active", CategoryAr: "تقنية"},
		{ID: 12, Status: "active", Category: "technology"},
		{ID: 13, Status: "active", Category: "Arts"},
	}}
	svc := NewCategoryService(repo, courses, zap.NewNop())

	categories, _, err := svc.List(context.Background())
	require.NoError(t, err)
	counts := make(map[int64]int, len(categories))
	for _, c := range categories {
		counts[c.ID] = c.CoursesCount
	}
	assert.Equal(t, 3, counts[1])
	assert.Equal(t, 1, counts[2])
}

func TestCategoryServiceCountsIgnoreInactiveCourses(t *testing.T) {
	repo := &mockCategoryRepo{categories: map[int64]models.Category{
		1: {ID: 1, Name: "Tech", NameAr: "تقنية"},
	}}
	courses := &mockCourseLister{courses: []models.Course{
		{ID: 10, Status: "active", Category: "Tech"},
		{ID: 11, Status: "archived", Category: "Tech"},
	}}
	svc := NewCategoryService(repo, courses, zap.NewNop())

	categories, _, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, 1, categories[0].CoursesCount)
}

func TestCategoryServiceDeleteBlockedByCourses(t *testing.T) {
	repo := &mockCategoryRepo{categories: map[int64]models.Category{
		1: {ID: 1, Name: "Tech", NameAr: "تقنية"},
	}}
	courses := &mockCourseLister{courses: []models.Course{
		{ID: 10, Status: "active", Category: "Tech"},
	}}
	svc := NewCategoryService(repo, courses, zap.NewNop())

	_, err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrHasDependents.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Contains(t, repo.categories, int64(1))
	assert.Empty(t, repo.deleted)
}

func TestCategoryServiceDeleteEmpty(t *testing.T) {
	repo := &mockCategoryRepo{categories: map[int64]models.Category{
		1: {ID: 1, Name: "Tech", NameAr: "تقنية"},
	}}
	svc := NewCategoryService(repo, &mockCourseLister{}, zap.NewNop())

	_, err := svc.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, int64(1))
}

func TestCategoryServiceGetDetail(t *testing.T) {
	repo := &mockCategoryRepo{categories: map[int64]models.Category{
		1: {ID: 1, Name: "Tech", NameAr: "تقنية"},
	}}
	courses := &mockCourseLister{courses: []models.Course{
		{ID: 10, Status: "active", Category: "Tech", Title: "Go"},
		{ID: 11, Status: "active", Category: "Other", Title: "Paint"},
	}}
	svc := NewCategoryService(repo, courses, zap.NewNop())

	detail, _, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Category.CoursesCount)
	require.Len(t, detail.Courses, 1)
	assert.Equal(t, "Go", detail.Courses[0].Title)
}

func TestCategoryServiceGetMissing(t *testing.T) {
	svc := NewCategoryService(&mockCategoryRepo{}, &mockCourseLister{}, zap.NewNop())

	_, _, err := svc.Get(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
