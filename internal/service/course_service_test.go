package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[int64]models.Course
	nextID  int64
	deleted []int64
	listErr error
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, tier.Tier, error) {
	if m.listErr != nil {
		return nil, tier.MySQL, m.listErr
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

func (m *mockCourseRepo) GetByID(ctx context.Context, id int64) (models.Course, tier.Tier, error) {
	if c, ok := m.courses[id]; ok {
		return c, tier.MySQL, nil
	}
	return models.Course{}, tier.MySQL, sql.ErrNoRows
}

func (m *mockCourseRepo) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, tier.Tier, error) {
	for _, c := range m.courses {
		if strings.EqualFold(c.CourseCode, code) && c.ID != excludeID {
			return true, tier.MySQL, nil
		}
	}
	return false, tier.MySQL, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) (tier.Tier, error) {
	if m.courses == nil {
		m.courses = make(map[int64]models.Course)
	}
	m.nextID++
	course.ID = m.nextID
	m.courses[course.ID] = *course
	return tier.MySQL, nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) (tier.Tier, error) {
	if _, ok := m.courses[course.ID]; !ok {
		return tier.MySQL, sql.ErrNoRows
	}
	m.courses[course.ID] = *course
	return tier.MySQL, nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id int64) (tier.Tier, error) {
	if _, ok := m.courses[id]; !ok {
		return tier.MySQL, sql.ErrNoRows
	}
	delete(m.courses, id)
	m.deleted = append(m.deleted, id)
	return tier.MySQL, nil
}

type mockCategoryLister struct {
	categories []models.Category
	err        error
}

func (m *mockCategoryLister) List(ctx context.Context) ([]models.Category, tier.Tier, error) {
	return m.categories, tier.MySQL, m.err
}

type mockEnrollmentCounter struct {
	counts map[int64]int
}

func (m *mockEnrollmentCounter) CountByCourse(ctx context.Context, courseID int64) (int, tier.Tier, error) {
	return m.counts[courseID], tier.MySQL, nil
}

func newCourseService(repo *mockCourseRepo, cats *mockCategoryLister, counts *mockEnrollmentCounter) *CourseService {
	if cats == nil {
		cats = &mockCategoryLister{}
	}
	if counts == nil {
		counts = &mockEnrollmentCounter{}
	}
	return NewCourseService(repo, cats, counts, nil, zap.NewNop())
}

func TestCourseServiceCreateNormalizesInput(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newCourseService(repo, nil, nil)

	cases := []struct {
		featured interface{}
		want     bool
	}{
		{true, true},
		{"1", true},
		{"yes", true},
		{float64(1), true},
		{false, false},
		{"0", false},
		{nil, false},
	}
	for i, tc := range cases {
		created, _, err := svc.Create(context.Background(), CourseRequest{
			CourseCode: fmt.Sprintf("GO%03d", i),
			Title:      "Go Basics",
			Price:      "١٥٠ جنيه",
			IsFeatured: tc.featured,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.want, created.IsFeatured, "featured input %v", tc.featured)
		assert.Equal(t, "150", created.Price)

		fetched, _, err := svc.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, fetched.IsFeatured)
	}
}

func TestCourseServiceCreateRequiresCodeAndTitle(t *testing.T) {
	svc := newCourseService(&mockCourseRepo{}, nil, nil)

	_, _, err := svc.Create(context.Background(), CourseRequest{Title: "No Code"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, _, err = svc.Create(context.Background(), CourseRequest{CourseCode: "GO101"})
	require.Error(t, err)
}

func TestCourseServiceCreateAcceptsCourseNameAlias(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newCourseService(repo, nil, nil)

	created, _, err := svc.Create(context.Background(), CourseRequest{
		CourseCode: "AR200",
		CourseName: "تطوير الويب",
	})
	require.NoError(t, err)
	assert.Equal(t, "تطوير الويب", created.Title)
	assert.Equal(t, models.CourseStatusActive, created.Status)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	repo := &mockCourseRepo{courses: map[int64]models.Course{
		1: {ID: 1, CourseCode: "GO101", Title: "Existing"},
	}, nextID: 1}
	svc := newCourseService(repo, nil, nil)

	_, _, err := svc.Create(context.Background(), CourseRequest{CourseCode: "go101", Title: "Copy"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErr.Code)
	assert.Equal(t, 1, len(repo.courses))
}

func TestCourseServiceUpdateKeepsCodeWhenOmitted(t *testing.T) {
	repo := &mockCourseRepo{courses: map[int64]models.Course{
		5: {ID: 5, CourseCode: "GO101", Title: "Old", Status: "active"},
	}, nextID: 5}
	svc := newCourseService(repo, nil, nil)

	updated, _, err := svc.Update(context.Background(), CourseRequest{ID: 5, Title: "New Title"})
	require.NoError(t, err)
	assert.Equal(t, "GO101", updated.CourseCode)
	assert.Equal(t, "New Title", updated.Title)
}

func TestCourseServiceUpdateMissing(t *testing.T) {
	svc := newCourseService(&mockCourseRepo{}, nil, nil)

	_, _, err := svc.Update(context.Background(), CourseRequest{ID: 99, Title: "Ghost"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseServiceDeleteBlockedByEnrollments(t *testing.T) {
	repo := &mockCourseRepo{courses: map[int64]models.Course{
		3: {ID: 3, CourseCode: "GO101", Title: "Referenced"},
	}}
	counts := &mockEnrollmentCounter{counts: map[int64]int{3: 2}}
	svc := newCourseService(repo, nil, counts)

	_, err := svc.Delete(context.Background(), 3)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrHasDependents.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Contains(t, repo.courses, int64(3))
}

func TestCourseServiceDeleteUnreferenced(t *testing.T) {
	repo := &mockCourseRepo{courses: map[int64]models.Course{
		3: {ID: 3, CourseCode: "GO101", Title: "Free"},
	}}
	svc := newCourseService(repo, nil, nil)

	_, err := svc.Delete(context.Background(), 3)
	require.NoError(t, err)
	assert.Contains(t, repo.deleted, int64(3))
}

func TestCourseServiceListResolvesCategoryLabels(t *testing.T) {
	catID := int64(7)
	repo := &mockCourseRepo{courses: map[int64]models.Course{
		1: {ID: 1, CourseCode: "A", Title: "ByID", CategoryID: &catID},
		2: {ID: 2, CourseCode: "B", Title: "ByText", CategoryAr: "تقنية"},
		3: {ID: 3, CourseCode: "C", Title: "Orphan", Category: "unknown"},
	}}
	cats := &mockCategoryLister{categories: []models.Category{
		{ID: 7, Name: "Technology", NameAr: "تقنية"},
	}}
	svc := newCourseService(repo, cats, nil)

	courses, _, err := svc.List(context.Background(), models.CourseFilter{})
	require.NoError(t, err)
	labels := make(map[int64]string, len(courses))
	for _, c := range courses {
		labels[c.ID] = c.Category
	}
	assert.Equal(t, "Technology", labels[1])
	assert.Equal(t, "Technology", labels[2])
	assert.Equal(t, models.GeneralCategory, labels[3])
}

func TestCourseServiceListCategoryFilter(t *testing.T) {
	catID := int64(7)
	repo := &mockCourseRepo{courses: map[int64]models.Course{
		1: {ID: 1, CourseCode: "A", Title: "In", CategoryID: &catID},
		2: {ID: 2, CourseCode: "B", Title: "AlsoIn", Category: "Technology"},
		3: {ID: 3, CourseCode: "C", Title: "Out", Category: "Arts"},
	}}
	cats := &mockCategoryLister{categories: []models.Category{
		{ID: 7, Name: "Technology", NameAr: "تقنية"},
	}}
	svc := newCourseService(repo, cats, nil)

	courses, _, err := svc.List(context.Background(), models.CourseFilter{CategoryID: 7})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	for _, c := range courses {
		assert.NotEqual(t, int64(3), c.ID)
	}
}
