package repository

import (
	"database/sql"
	"sort"
	"time"

	"github.com/almanara-academy/courses-api/internal/models"
)

// categoryFileStore is the flat-file fallback tier for categories.
type categoryFileStore struct {
	col *collection[models.Category]
}

func newCategoryFileStore(dataDir string) *categoryFileStore {
	return &categoryFileStore{col: newCollection[models.Category](dataDir, "categories.json")}
}

func (s *categoryFileStore) List() ([]models.Category, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	categories, err := s.col.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].DisplayOrder == categories[j].DisplayOrder {
			return categories[i].ID < categories[j].ID
		}
		return categories[i].DisplayOrder < categories[j].DisplayOrder
	})
	return categories, nil
}

func (s *categoryFileStore) GetByID(id int64) (models.Category, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	categories, err := s.col.load()
	if err != nil {
		return models.Category{}, err
	}
	for _, c := range categories {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, sql.ErrNoRows
}

func (s *categoryFileStore) ExistsByName(name, nameAr string, excludeID int64) (bool, error) {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	categories, err := s.col.load()
	if err != nil {
		return false, err
	}
	for _, c := range categories {
		if c.ID == excludeID {
			continue
		}
		if c.MatchesText(name) || c.MatchesText(nameAr) {
			return true, nil
		}
	}
	return false, nil
}

func (s *categoryFileStore) Insert(category *models.Category) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	categories, err := s.col.load()
	if err != nil {
		return err
	}
	category.ID = nextID(categories, func(c models.Category) int64 { return c.ID })
	category.CreatedAt = time.Now().UTC()
	return s.col.save(append(categories, *category))
}

func (s *categoryFileStore) Update(category *models.Category) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	categories, err := s.col.load()
	if err != nil {
		return err
	}
	for i := range categories {
		if categories[i].ID == category.ID {
			category.CreatedAt = categories[i].CreatedAt
			categories[i] = *category
			return s.col.save(categories)
		}
	}
	return sql.ErrNoRows
}

// Delete is idempotent so the store can serve as the delete-mirror target.
func (s *categoryFileStore) Delete(id int64) error {
	s.col.mu.Lock()
	defer s.col.mu.Unlock()
	categories, err := s.col.load()
	if err != nil {
		return err
	}
	kept := categories[:0:0]
	for _, c := range categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(categories) {
		return nil
	}
	return s.col.save(kept)
}
