package models

import "time"

// GeneralCategory is the sentinel label used when a course's category
// cannot be resolved to a known entry.
const GeneralCategory = "general"

// Category holds a bilingual name pair. CoursesCount is derived at read
// time and counts courses matching by relational id OR by case-insensitive
// text in either language, without double counting.
type Category struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"category_name"`
	NameAr       string    `db:"name_ar" json:"category_name_ar"`
	Description  string    `db:"description" json:"description,omitempty"`
	Icon         string    `db:"icon" json:"icon,omitempty"`
	Color        string    `db:"color" json:"color,omitempty"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	Active       bool      `db:"active" json:"is_active"`
	CoursesCount int       `db:"courses_count" json:"courses_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// MatchesText reports whether the given legacy free-text category refers to
// this category in either language, case-insensitively.
func (c Category) MatchesText(text string) bool {
	if text == "" {
		return false
	}
	return equalFold(c.Name, text) || equalFold(c.NameAr, text)
}

// MatchesCourse reports whether the course belongs to this category via the
// relational id or the legacy text path. The id wins when present.
func (c Category) MatchesCourse(course Course) bool {
	if course.CategoryID != nil {
		return *course.CategoryID == c.ID
	}
	return c.MatchesText(course.Category) || c.MatchesText(course.CategoryAr)
}
