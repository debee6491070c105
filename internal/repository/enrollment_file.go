package repository

import (
	"database/sql"
	"sort"

	"github.com/almanara-academy/courses-api/internal/models"
)

// enrollmentFileStore is the last-resort flat-file tier for enrollment
// requests.
type enrollmentFileStore struct {
	col *collection[models.EnrollmentRequest]
}

func newEnrollmentFileStore(dataDir string) *enrollmentFileStore {
	return &enrollmentFileStore{col: newCollection[models.EnrollmentRequest](dataDir, "enrollments.json")}
}

func (s *enrollmentFileStore) List(status string) ([]models.EnrollmentRequest, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	requests, err := s.col.load()
	if err != nil {
		return nil, err
	}
	filtered := requests[:0:0]
	for _, r := range requests {
		if status != "" && r.Status != status {
			continue
		}
		filtered = append(filtered, r)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].SubmittedAt.Equal(filtered[j].SubmittedAt) {
			return filtered[i].ID > filtered[j].ID
		}
		return filtered[i].SubmittedAt.After(filtered[j].SubmittedAt)
	})
	return filtered, nil
}

func (s *enrollmentFileStore) GetByID(id int64) (models.EnrollmentRequest, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	requests, err := s.col.load()
	if err != nil {
		return models.EnrollmentRequest{}, err
	}
	for _, r := range requests {
		if r.ID == id {
			return r, nil
		}
	}
	return models.EnrollmentRequest{}, sql.ErrNoRows
}

func (s *enrollmentFileStore) Insert(request *models.EnrollmentRequest) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	requests, err := s.col.load()
	if err != nil {
		return err
	}
	request.ID = nextID(requests, func(r models.EnrollmentRequest) int64 { return r.ID })
	return s.col.save(append(requests, *request))
}

// Upsert writes the request under its existing id, inserting when absent.
func (s *enrollmentFileStore) Upsert(request models.EnrollmentRequest) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	requests, err := s.col.load()
	if err != nil {
		return err
	}
	for i := range requests {
		if requests[i].ID == request.ID {
			requests[i] = request
			return s.col.save(requests)
		}
	}
	return s.col.save(append(requests, request))
}

func (s *enrollmentFileStore) UpdateStatus(request *models.EnrollmentRequest) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	requests, err := s.col.load()
	if err != nil {
		return err
	}
	for i := range requests {
		if requests[i].ID == request.ID {
			requests[i].Status = request.Status
			requests[i].ApprovedAt = request.ApprovedAt
			requests[i].Notes = request.Notes
			requests[i].WelcomeMessage = request.WelcomeMessage
			requests[i].ContactLink = request.ContactLink
			return s.col.save(requests)
		}
	}
	return sql.ErrNoRows
}

// Delete is idempotent so the store can absorb delete mirrors from the
// higher tiers.
func (s *enrollmentFileStore) Delete(id int64) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	requests, err := s.col.load()
	if err != nil {
		return err
	}
	kept := requests[:0:0]
	for _, r := range requests {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(requests) {
		return nil
	}
	return s.col.save(kept)
}

func (s *enrollmentFileStore) CountByCourse(courseID int64) (int, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	requests, err := s.col.load()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, r := range requests {
		if r.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (s *enrollmentFileStore) CountByStatus() (map[string]int, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	requests, err := s.col.load()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range requests {
		counts[r.Status]++
	}
	return counts, nil
}
