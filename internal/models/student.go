package models

import "time"

// StudentStatusActive is the default roster status.
const StudentStatusActive = "active"

// Student is a registered learner on the roster. StudentNumber is the
// external human-assigned identifier; it and Email are unique, enforced by
// the primary store only.
type Student struct {
	ID             int64     `db:"id" json:"id"`
	StudentNumber  string    `db:"student_number" json:"student_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone,omitempty"`
	BirthDate      string    `db:"birth_date" json:"date_of_birth,omitempty"`
	Gender         string    `db:"gender" json:"gender,omitempty"`
	Address        string    `db:"address" json:"address,omitempty"`
	EnrollmentDate string    `db:"enrollment_date" json:"enrollment_date,omitempty"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
