package models

// Stats aggregates entity counts for the admin dashboard.
type Stats struct {
	Courses       int             `json:"courses"`
	ActiveCourses int             `json:"active_courses"`
	Categories    int             `json:"categories"`
	Students      int             `json:"students"`
	Enrollments   EnrollmentStats `json:"enrollments"`
}

// EnrollmentStats breaks enrollment requests down by lifecycle status.
type EnrollmentStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
