package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
	"github.com/almanara-academy/courses-api/pkg/database"
)

// CourseRepository is the tiered persistence gateway for courses:
// MySQL first, flat file second. Every result is already in the canonical
// shape, so callers never see tier-specific records.
type CourseRepository struct {
	sql   *courseSQLStore
	file  *courseFileStore
	chain tier.Chain
}

// NewCourseRepository wires the course tiers.
func NewCourseRepository(db *sqlx.DB, probe *database.SchemaProbe, dataDir string, logger *zap.Logger, observer tier.Observer) *CourseRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseRepository{
		sql:   newCourseSQLStore(db, probe, logger),
		file:  newCourseFileStore(dataDir),
		chain: tier.Chain{Entity: "courses", Logger: logger, Observer: observer},
	}
}

func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, tier.Tier, error) {
	return tier.Execute(ctx, r.chain, "list", []tier.Attempt[[]models.Course]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) ([]models.Course, error) {
			return r.sql.List(ctx, filter)
		}},
		{Tier: tier.File, Run: func(ctx context.Context) ([]models.Course, error) {
			return r.file.List(filter)
		}},
	})
}

func (r *CourseRepository) GetByID(ctx context.Context, id int64) (models.Course, tier.Tier, error) {
	return tier.Execute(ctx, r.chain, "get", []tier.Attempt[models.Course]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (models.Course, error) {
			return haltNoRows(r.sql.GetByID(ctx, id))
		}},
		{Tier: tier.File, Run: func(ctx context.Context) (models.Course, error) {
			return haltNoRows(r.file.GetByID(id))
		}},
	})
}

func (r *CourseRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, tier.Tier, error) {
	return tier.Execute(ctx, r.chain, "exists", []tier.Attempt[bool]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (bool, error) {
			return r.sql.ExistsByCode(ctx, code, excludeID)
		}},
		{Tier: tier.File, Run: func(ctx context.Context) (bool, error) {
			return r.file.ExistsByCode(code, excludeID)
		}},
	})
}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (tier.Tier, error) {
	_, served, err := tier.Execute(ctx, r.chain, "insert", []tier.Attempt[struct{}]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.sql.Insert(ctx, course)
		}},
		{Tier: tier.File, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.file.Insert(course)
		}},
	})
	return served, err
}

func (r *CourseRepository) Update(ctx context.Context, course *models.Course) (tier.Tier, error) {
	_, served, err := tier.Execute(ctx, r.chain, "update", []tier.Attempt[struct{}]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, haltNoRowsErr(r.sql.Update(ctx, course))
		}},
		{Tier: tier.File, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, haltNoRowsErr(r.file.Update(course))
		}},
	})
	return served, err
}

// Delete removes the course from the first available tier and always
// mirrors the removal into the flat-file shadow, so the record cannot be
// resurrected by a later fallback read.
func (r *CourseRepository) Delete(ctx context.Context, id int64) (tier.Tier, error) {
	_, served, err := tier.Execute(ctx, r.chain, "delete", []tier.Attempt[struct{}]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, haltNoRowsErr(r.sql.Delete(ctx, id))
		}},
		{Tier: tier.File, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.file.Delete(id)
		}},
	})
	if err == nil && served != tier.File {
		if mirrorErr := r.file.Delete(id); mirrorErr != nil {
			r.chain.Logger.Warn("course shadow delete failed",
				zap.Int64("id", id), zap.Error(mirrorErr))
		}
	}
	return served, err
}

// haltNoRows converts sql.ErrNoRows into a halting error: an absent row is
// a domain outcome, not a tier failure, and must not fall through.
func haltNoRows[T any](v T, err error) (T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return v, tier.Halt(err)
	}
	return v, err
}

func haltNoRowsErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return tier.Halt(err)
	}
	return err
}
