package repository

import (
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/almanara-academy/courses-api/internal/models"
)

// courseFileStore is the flat-file fallback tier for courses.
type courseFileStore struct {
	col *collection[models.Course]
}

func newCourseFileStore(dataDir string) *courseFileStore {
	return &courseFileStore{col: newCollection[models.Course](dataDir, "courses.json")}
}

func (s *courseFileStore) List(filter models.CourseFilter) ([]models.Course, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	courses, err := s.col.load()
	if err != nil {
		return nil, err
	}

	filtered := courses[:0:0]
	needle := strings.ToLower(filter.Search)
	for _, c := range courses {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Title), needle) &&
			!strings.Contains(strings.ToLower(c.CourseCode), needle) &&
			!strings.Contains(strings.ToLower(c.Instructor), needle) {
			continue
		}
		filtered = append(filtered, c)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID > filtered[j].ID
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}

func (s *courseFileStore) GetByID(id int64) (models.Course, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	courses, err := s.col.load()
	if err != nil {
		return models.Course{}, err
	}
	for _, c := range courses {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Course{}, sql.ErrNoRows
}

func (s *courseFileStore) ExistsByCode(code string, excludeID int64) (bool, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	courses, err := s.col.load()
	if err != nil {
		return false, err
	}
	for _, c := range courses {
		if c.ID != excludeID && strings.EqualFold(c.CourseCode, code) {
			return true, nil
		}
	}
	return false, nil
}

func (s *courseFileStore) Insert(course *models.Course) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	courses, err := s.col.load()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	course.ID = nextID(courses, func(c models.Course) int64 { return c.ID })
	course.CreatedAt = now
	course.UpdatedAt = now
	return s.col.save(append(courses, *course))
}

func (s *courseFileStore) Update(course *models.Course) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	courses, err := s.col.load()
	if err != nil {
		return err
	}
	for i := range courses {
		if courses[i].ID == course.ID {
			course.CreatedAt = courses[i].CreatedAt
			course.UpdatedAt = time.Now().UTC()
			courses[i] = *course
			return s.col.save(courses)
		}
	}
	return sql.ErrNoRows
}

// Delete removes the course by id. Missing entries succeed so the store
// doubles as the delete-mirror target for the primary tier.
func (s *courseFileStore) Delete(id int64) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	courses, err := s.col.load()
	if err != nil {
		return err
	}
	kept := courses[:0:0]
	for _, c := range courses {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(courses) {
		return nil
	}
	return s.col.save(kept)
}
