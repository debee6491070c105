package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
	"github.com/almanara-academy/courses-api/pkg/export"
	"github.com/almanara-academy/courses-api/pkg/jobs"
	"github.com/almanara-academy/courses-api/pkg/storage"
)

type enrollmentLister interface {
	List(ctx context.Context, status string) ([]models.EnrollmentRequest, tier.Tier, error)
}

type studentLister interface {
	List(ctx context.Context, search string) ([]models.Student, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	Workers   int
}

// ExportService renders entity datasets to downloadable files. Generation
// runs on a background queue; the requester polls the job until a signed
// download link appears.
type ExportService struct {
	courses     courseLister
	enrollments enrollmentLister
	students    studentLister
	storage     exportStorage
	csv         csvRenderer
	pdf         pdfRenderer
	signer      *storage.SignedURLSigner
	queue       *jobs.Queue
	logger      *zap.Logger
	cfg         ExportConfig

	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

// NewExportService constructs an ExportService. Call Start before
// enqueueing jobs.
func NewExportService(courses courseLister, enrollments enrollmentLister, students studentLister, store exportStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		courses:     courses,
		enrollments: enrollments,
		students:    students,
		storage:     store,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		signer:      signer,
		logger:      logger,
		cfg:         cfg,
		jobs:        make(map[string]*models.ExportJob),
	}
	s.queue = jobs.NewQueue("exports", s.process, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the background workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a new export job and hands it to the workers.
func (s *ExportService) Enqueue(exportType, format string) (models.ExportJob, error) {
	switch exportType {
	case models.ExportTypeCourses, models.ExportTypeEnrollments, models.ExportTypeStudents:
	default:
		return models.ExportJob{}, appErrors.Clone(appErrors.ErrValidation, "نوع التصدير غير مدعوم")
	}
	switch format {
	case models.ExportFormatCSV, models.ExportFormatPDF:
	default:
		return models.ExportJob{}, appErrors.Clone(appErrors.ErrValidation, "صيغة التصدير غير مدعومة")
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		Type:        exportType,
		Format:      format,
		Status:      models.ExportStatusQueued,
		RequestedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportType}); err != nil {
		s.fail(job.ID, err)
		return models.ExportJob{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "تعذر بدء عملية التصدير")
	}
	return *job, nil
}

// Get returns the current state of a job.
func (s *ExportService) Get(id string) (models.ExportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.ExportJob{}, appErrors.Clone(appErrors.ErrNotFound, "عملية التصدير غير موجودة")
	}
	return *job, nil
}

// ParseToken validates a download token and returns the stored file path.
func (s *ExportService) ParseToken(token string) (relPath string, err error) {
	_, relPath, _, err = s.signer.Parse(token)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "رابط التحميل غير صالح أو منتهي الصلاحية")
	}
	return relPath, nil
}

// Open returns a handle to the stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	s.transition(job.ID, models.ExportStatusProcessing, "")

	state, err := s.Get(job.ID)
	if err != nil {
		return err
	}
	dataset, title, err := s.buildDataset(ctx, state.Type)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	var payload []byte
	switch state.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	filename := fmt.Sprintf("%s_%s.%s", state.Type, time.Now().UTC().Format("20060102_150405"), state.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if j, ok := s.jobs[job.ID]; ok {
		j.Status = models.ExportStatusCompleted
		j.DownloadURL = fmt.Sprintf("%s/exports/download/%s", prefix, token)
		j.ExpiresAt = &expiresAt
		j.CompletedAt = &now
	}
	s.mu.Unlock()
	return nil
}

func (s *ExportService) buildDataset(ctx context.Context, exportType string) (export.Dataset, string, error) {
	switch exportType {
	case models.ExportTypeCourses:
		return s.buildCoursesDataset(ctx)
	case models.ExportTypeEnrollments:
		return s.buildEnrollmentsDataset(ctx)
	case models.ExportTypeStudents:
		return s.buildStudentsDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export type %s", exportType)
	}
}

func (s *ExportService) buildCoursesDataset(ctx context.Context) (export.Dataset, string, error) {
	courses, _, err := s.courses.List(ctx, models.CourseFilter{})
	if err != nil {
		return export.Dataset{}, "", err
	}
	headers := []string{"ID", "Code", "Title", "Instructor", "Price", "Status", "Enrolled", "Capacity"}
	rows := make([]map[string]string, 0, len(courses))
	for _, c := range courses {
		rows = append(rows, map[string]string{
			"ID":         fmt.Sprintf("%d", c.ID),
			"Code":       c.CourseCode,
			"Title":      c.Title,
			"Instructor": c.Instructor,
			"Price":      c.Price,
			"Status":     c.Status,
			"Enrolled":   fmt.Sprintf("%d", c.EnrolledCount),
			"Capacity":   fmt.Sprintf("%d", c.Capacity),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Courses", nil
}

func (s *ExportService) buildEnrollmentsDataset(ctx context.Context) (export.Dataset, string, error) {
	requests, _, err := s.enrollments.List(ctx, "")
	if err != nil {
		return export.Dataset{}, "", err
	}
	headers := []string{"Request", "Student", "Email", "Phone", "Course", "Price", "Status", "Submitted"}
	rows := make([]map[string]string, 0, len(requests))
	for _, r := range requests {
		rows = append(rows, map[string]string{
			"Request":   r.RequestNumber,
			"Student":   r.StudentName,
			"Email":     r.Email,
			"Phone":     r.Phone,
			"Course":    r.CourseName,
			"Price":     r.CoursePrice,
			"Status":    r.Status,
			"Submitted": r.SubmittedAt.Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Enrollment Requests", nil
}

func (s *ExportService) buildStudentsDataset(ctx context.Context) (export.Dataset, string, error) {
	students, err := s.students.List(ctx, "")
	if err != nil {
		return export.Dataset{}, "", err
	}
	headers := []string{"Student ID", "First Name", "Last Name", "Email", "Phone", "Status"}
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"Student ID": st.StudentNumber,
			"First Name": st.FirstName,
			"Last Name":  st.LastName,
			"Email":      st.Email,
			"Phone":      st.Phone,
			"Status":     st.Status,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Students", nil
}

func (s *ExportService) transition(id, status, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
		job.Error = errMsg
	}
}

func (s *ExportService) fail(id string, err error) {
	s.logger.Error("export job failed", zap.String("job_id", id), zap.Error(err))
	s.transition(id, models.ExportStatusFailed, err.Error())
}
