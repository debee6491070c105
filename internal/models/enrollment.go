package models

import (
	"fmt"
	"math/rand"
	"time"
)

// Enrollment request lifecycle states.
const (
	EnrollmentStatusPending  = "pending"
	EnrollmentStatusApproved = "approved"
	EnrollmentStatusRejected = "rejected"
)

// EnrollmentRequest is a public course-enrollment submission reviewed by an
// admin. Course name and price are denormalized snapshots taken at
// submission time so later course edits do not rewrite history.
type EnrollmentRequest struct {
	ID             int64       `db:"id" json:"id"`
	StudentName    string      `db:"student_name" json:"student_name"`
	Email          string      `db:"email" json:"email"`
	Phone          string      `db:"phone" json:"phone"`
	CourseID       int64       `db:"course_id" json:"course_id"`
	CourseName     string      `db:"course_name" json:"course_name"`
	CoursePrice    string      `db:"course_price" json:"course_price"`
	PaymentMethod  string      `db:"payment_method" json:"payment_method"`
	PaymentDetails FlexibleDoc `db:"payment_details" json:"payment_details"`
	ReceiptPath    string      `db:"receipt_path" json:"receipt_path,omitempty"`
	Status         string      `db:"status" json:"status"`
	RequestNumber  string      `db:"request_number" json:"request_number"`
	SubmittedAt    time.Time   `db:"submitted_at" json:"submitted_at"`
	ApprovedAt     *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
	Notes          FlexibleDoc `db:"notes" json:"notes,omitempty"`
	WelcomeMessage string      `db:"welcome_message" json:"welcome_message,omitempty"`
	ContactLink    string      `db:"contact_link" json:"contact_link,omitempty"`
}

// PaymentDetails is the structured form serialized into the request's
// payment_details field. TransactionID is optional.
type PaymentDetails struct {
	Amount        string `json:"amount,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// NewRequestNumber generates a human-readable request number. The unix
// timestamp keeps numbers roughly monotonic; the random suffix avoids
// collisions within the same second.
func NewRequestNumber() string {
	return fmt.Sprintf("REQ-%d-%04d", time.Now().Unix(), rand.Intn(10000))
}
