package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almanara-academy/courses-api/internal/models"
)

func TestCourseFileStoreRoundTrip(t *testing.T) {
	store := newCourseFileStore(t.TempDir())

	course := &models.Course{
		CourseCode: "CS101",
		Title:      "مقدمة في البرمجة",
		Instructor: "أحمد محمد",
		Status:     models.CourseStatusActive,
		Price:      "1500",
	}
	require.NoError(t, store.Insert(course))
	assert.Equal(t, int64(1), course.ID)
	assert.False(t, course.CreatedAt.IsZero())

	got, err := store.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "CS101", got.CourseCode)
	assert.Equal(t, "مقدمة في البرمجة", got.Title)

	got.Title = "البرمجة المتقدمة"
	require.NoError(t, store.Update(&got))
	updated, err := store.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "البرمجة المتقدمة", updated.Title)
	assert.Equal(t, course.CreatedAt.Unix(), updated.CreatedAt.Unix())

	require.NoError(t, store.Delete(1))
	_, err = store.GetByID(1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseFileStoreIDsStayMonotonic(t *testing.T) {
	store := newCourseFileStore(t.TempDir())

	first := &models.Course{CourseCode: "A1", Title: "a", Status: "active"}
	second := &models.Course{CourseCode: "B2", Title: "b", Status: "active"}
	require.NoError(t, store.Insert(first))
	require.NoError(t, store.Insert(second))
	require.NoError(t, store.Delete(first.ID))

	third := &models.Course{CourseCode: "C3", Title: "c", Status: "active"}
	require.NoError(t, store.Insert(third))
	assert.Equal(t, int64(3), third.ID, "ids must not be reused after a delete")
}

func TestCourseFileStoreListFilters(t *testing.T) {
	store := newCourseFileStore(t.TempDir())
	require.NoError(t, store.Insert(&models.Course{CourseCode: "CS101", Title: "Intro to Go", Status: "active"}))
	require.NoError(t, store.Insert(&models.Course{CourseCode: "MA201", Title: "Calculus", Status: "archived"}))

	active, err := store.List(models.CourseFilter{Status: "active"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "CS101", active[0].CourseCode)

	matched, err := store.List(models.CourseFilter{Search: "calc"})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "MA201", matched[0].CourseCode)

	all, err := store.List(models.CourseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCourseFileStoreExistsByCode(t *testing.T) {
	store := newCourseFileStore(t.TempDir())
	course := &models.Course{CourseCode: "CS101", Title: "x", Status: "active"}
	require.NoError(t, store.Insert(course))

	exists, err := store.ExistsByCode("cs101", 0)
	require.NoError(t, err)
	assert.True(t, exists, "code match is case-insensitive")

	exists, err = store.ExistsByCode("CS101", course.ID)
	require.NoError(t, err)
	assert.False(t, exists, "the course itself is excluded")
}

func TestCourseFileStoreDeleteMissingSucceeds(t *testing.T) {
	store := newCourseFileStore(t.TempDir())
	assert.NoError(t, store.Delete(999))
}
