package models

import "time"

// Export job lifecycle states.
const (
	ExportStatusQueued     = "queued"
	ExportStatusProcessing = "processing"
	ExportStatusCompleted  = "completed"
	ExportStatusFailed     = "failed"
)

// Export dataset types and formats.
const (
	ExportTypeCourses     = "courses"
	ExportTypeEnrollments = "enrollments"
	ExportTypeStudents    = "students"

	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportJob tracks an asynchronous export request. Jobs live in process
// memory only; the requester polls by id until the download link appears.
type ExportJob struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
