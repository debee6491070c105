package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
)

type enrollmentStatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, tier.Tier, error)
}

type studentCounter interface {
	Count(ctx context.Context) (int, error)
}

// StatsService aggregates dashboard counts. Each section is computed
// independently and a failed section reports zero rather than failing the
// whole response, since the roster lives on the primary store only.
type StatsService struct {
	courses     courseLister
	categories  categoryLister
	enrollments enrollmentStatusCounter
	students    studentCounter
	logger      *zap.Logger
}

func NewStatsService(courses courseLister, categories categoryLister, enrollments enrollmentStatusCounter, students studentCounter, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		courses:     courses,
		categories:  categories,
		enrollments: enrollments,
		students:    students,
		logger:      logger,
	}
}

// Collect returns aggregate counts across all entities.
func (s *StatsService) Collect(ctx context.Context) models.Stats {
	var stats models.Stats

	if courses, _, err := s.courses.List(ctx, models.CourseFilter{}); err != nil {
		s.logger.Warn("stats: course count unavailable", zap.Error(err))
	} else {
		stats.Courses = len(courses)
		for _, c := range courses {
			if c.Status == models.CourseStatusActive {
				stats.ActiveCourses++
			}
		}
	}

	if categories, _, err := s.categories.List(ctx); err != nil {
		s.logger.Warn("stats: category count unavailable", zap.Error(err))
	} else {
		stats.Categories = len(categories)
	}

	if counts, _, err := s.enrollments.CountByStatus(ctx); err != nil {
		s.logger.Warn("stats: enrollment counts unavailable", zap.Error(err))
	} else {
		stats.Enrollments.Pending = counts[models.EnrollmentStatusPending]
		stats.Enrollments.Approved = counts[models.EnrollmentStatusApproved]
		stats.Enrollments.Rejected = counts[models.EnrollmentStatusRejected]
		for _, n := range counts {
			stats.Enrollments.Total += n
		}
	}

	if count, err := s.students.Count(ctx); err != nil {
		s.logger.Warn("stats: student count unavailable", zap.Error(err))
	} else {
		stats.Students = count
	}

	return stats
}
