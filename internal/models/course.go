package models

import "time"

// CourseStatusActive marks courses visible on the public catalog.
const CourseStatusActive = "active"

// Course is the canonical course shape every persistence tier normalizes
// into. Category carries the legacy free-text name (either language) while
// CategoryID is the relational reference; both paths stay valid and are
// reconciled at read time.
type Course struct {
	ID            int64      `db:"id" json:"id"`
	CourseCode    string     `db:"course_code" json:"course_code"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	Credits       int        `db:"credits" json:"credits"`
	Duration      string     `db:"duration" json:"duration"`
	Instructor    string     `db:"instructor" json:"instructor"`
	Capacity      int        `db:"capacity" json:"capacity"`
	EnrolledCount int        `db:"enrolled_count" json:"enrolled_count"`
	Price         string     `db:"price" json:"price"`
	PriceSDG      string     `db:"price_sdg" json:"price_sdg,omitempty"`
	Level         string     `db:"level" json:"level"`
	StartDate     string     `db:"start_date" json:"start_date"`
	EndDate       string     `db:"end_date" json:"end_date"`
	Status        string     `db:"status" json:"status"`
	CategoryID    *int64     `db:"category_id" json:"category_id,omitempty"`
	Category      string     `db:"category" json:"category"`
	CategoryAr    string     `db:"category_ar" json:"category_ar,omitempty"`
	Icon          string     `db:"icon" json:"icon,omitempty"`
	IsFeatured    bool       `db:"is_featured" json:"is_featured"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Search     string
	CategoryID int64
	Status     string
}
