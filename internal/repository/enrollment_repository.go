package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
)

// EnrollmentRepository is the deepest gateway in the service: MySQL first,
// then an embedded SQLite shadow, then the flat file. Submissions must not
// be lost to an outage, so enrollment requests get the extra tier.
type EnrollmentRepository struct {
	mysql  *enrollmentSQLStore
	sqlite *enrollmentSQLStore
	file   *enrollmentFileStore
	chain  tier.Chain
}

// NewEnrollmentRepository wires the enrollment tiers. sqliteDB may be nil
// when the embedded database could not be opened; the chain then skips
// straight to the flat file.
func NewEnrollmentRepository(mysqlDB, sqliteDB *sqlx.DB, dataDir string, logger *zap.Logger, observer tier.Observer) *EnrollmentRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &EnrollmentRepository{
		mysql: newEnrollmentSQLStore(mysqlDB, dialectMySQL, logger),
		file:  newEnrollmentFileStore(dataDir),
		chain: tier.Chain{Entity: "enrollments", Logger: logger, Observer: observer},
	}
	if sqliteDB != nil {
		r.sqlite = newEnrollmentSQLStore(sqliteDB, dialectSQLite, logger)
	}
	return r
}

func (r *EnrollmentRepository) List(ctx context.Context, status string) ([]models.EnrollmentRequest, tier.Tier, error) {
	attempts := []tier.Attempt[[]models.EnrollmentRequest]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) ([]models.EnrollmentRequest, error) {
			return r.mysql.List(ctx, status)
		}},
	}
	if r.sqlite != nil {
		attempts = append(attempts, tier.Attempt[[]models.EnrollmentRequest]{
			Tier: tier.SQLite, Run: func(ctx context.Context) ([]models.EnrollmentRequest, error) {
				return r.sqlite.List(ctx, status)
			}})
	}
	attempts = append(attempts, tier.Attempt[[]models.EnrollmentRequest]{
		Tier: tier.File, Run: func(ctx context.Context) ([]models.EnrollmentRequest, error) {
			return r.file.List(status)
		}})
	return tier.Execute(ctx, r.chain, "list", attempts)
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id int64) (models.EnrollmentRequest, tier.Tier, error) {
	attempts := []tier.Attempt[models.EnrollmentRequest]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (models.EnrollmentRequest, error) {
			return haltNoRows(r.mysql.GetByID(ctx, id))
		}},
	}
	if r.sqlite != nil {
		attempts = append(attempts, tier.Attempt[models.EnrollmentRequest]{
			Tier: tier.SQLite, Run: func(ctx context.Context) (models.EnrollmentRequest, error) {
				return haltNoRows(r.sqlite.GetByID(ctx, id))
			}})
	}
	attempts = append(attempts, tier.Attempt[models.EnrollmentRequest]{
		Tier: tier.File, Run: func(ctx context.Context) (models.EnrollmentRequest, error) {
			return haltNoRows(r.file.GetByID(id))
		}})
	return tier.Execute(ctx, r.chain, "get", attempts)
}

// Create inserts the request into the first available tier and shadows it
// into the tiers below, so a later primary outage still finds the record.
func (r *EnrollmentRepository) Create(ctx context.Context, request *models.EnrollmentRequest) (tier.Tier, error) {
	attempts := []tier.Attempt[struct{}]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.mysql.Insert(ctx, request)
		}},
	}
	if r.sqlite != nil {
		attempts = append(attempts, tier.Attempt[struct{}]{
			Tier: tier.SQLite, Run: func(ctx context.Context) (struct{}, error) {
				return struct{}{}, r.sqlite.Insert(ctx, request)
			}})
	}
	attempts = append(attempts, tier.Attempt[struct{}]{
		Tier: tier.File, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.file.Insert(request)
		}})

	_, served, err := tier.Execute(ctx, r.chain, "insert", attempts)
	if err != nil {
		return served, err
	}
	r.shadow(ctx, *request, served)
	return served, nil
}

func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, request *models.EnrollmentRequest) (tier.Tier, error) {
	attempts := []tier.Attempt[struct{}]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, haltNoRowsErr(r.mysql.UpdateStatus(ctx, request))
		}},
	}
	if r.sqlite != nil {
		attempts = append(attempts, tier.Attempt[struct{}]{
			Tier: tier.SQLite, Run: func(ctx context.Context) (struct{}, error) {
				return struct{}{}, haltNoRowsErr(r.sqlite.UpdateStatus(ctx, request))
			}})
	}
	attempts = append(attempts, tier.Attempt[struct{}]{
		Tier: tier.File, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, haltNoRowsErr(r.file.UpdateStatus(request))
		}})

	_, served, err := tier.Execute(ctx, r.chain, "update_status", attempts)
	if err != nil {
		return served, err
	}
	r.shadow(ctx, *request, served)
	return served, nil
}

// Delete removes the request from the first available tier and mirrors the
// removal into every tier below it.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) (tier.Tier, error) {
	attempts := []tier.Attempt[struct{}]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, haltNoRowsErr(r.mysql.Delete(ctx, id))
		}},
	}
	if r.sqlite != nil {
		attempts = append(attempts, tier.Attempt[struct{}]{
			Tier: tier.SQLite, Run: func(ctx context.Context) (struct{}, error) {
				return struct{}{}, haltNoRowsErr(r.sqlite.Delete(ctx, id))
			}})
	}
	attempts = append(attempts, tier.Attempt[struct{}]{
		Tier: tier.File, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.file.Delete(id)
		}})

	_, served, err := tier.Execute(ctx, r.chain, "delete", attempts)
	if err != nil {
		return served, err
	}
	if served != tier.SQLite && served != tier.File && r.sqlite != nil {
		if mirrorErr := r.sqlite.DeleteShadow(ctx, id); mirrorErr != nil {
			r.chain.Logger.Warn("enrollment sqlite shadow delete failed",
				zap.Int64("id", id), zap.Error(mirrorErr))
		}
	}
	if served != tier.File {
		if mirrorErr := r.file.Delete(id); mirrorErr != nil {
			r.chain.Logger.Warn("enrollment file shadow delete failed",
				zap.Int64("id", id), zap.Error(mirrorErr))
		}
	}
	return served, err
}

func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID int64) (int, tier.Tier, error) {
	attempts := []tier.Attempt[int]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (int, error) {
			return r.mysql.CountByCourse(ctx, courseID)
		}},
	}
	if r.sqlite != nil {
		attempts = append(attempts, tier.Attempt[int]{
			Tier: tier.SQLite, Run: func(ctx context.Context) (int, error) {
				return r.sqlite.CountByCourse(ctx, courseID)
			}})
	}
	attempts = append(attempts, tier.Attempt[int]{
		Tier: tier.File, Run: func(ctx context.Context) (int, error) {
			return r.file.CountByCourse(courseID)
		}})
	return tier.Execute(ctx, r.chain, "count_by_course", attempts)
}

func (r *EnrollmentRepository) CountByStatus(ctx context.Context) (map[string]int, tier.Tier, error) {
	attempts := []tier.Attempt[map[string]int]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (map[string]int, error) {
			return r.mysql.CountByStatus(ctx)
		}},
	}
	if r.sqlite != nil {
		attempts = append(attempts, tier.Attempt[map[string]int]{
			Tier: tier.SQLite, Run: func(ctx context.Context) (map[string]int, error) {
				return r.sqlite.CountByStatus(ctx)
			}})
	}
	attempts = append(attempts, tier.Attempt[map[string]int]{
		Tier: tier.File, Run: func(ctx context.Context) (map[string]int, error) {
			return r.file.CountByStatus()
		}})
	return tier.Execute(ctx, r.chain, "count_by_status", attempts)
}

// shadow copies the written request into the tiers below the one that
// served the write. Shadow failures are logged and ignored.
func (r *EnrollmentRepository) shadow(ctx context.Context, request models.EnrollmentRequest, served tier.Tier) {
	if served == tier.MySQL && r.sqlite != nil {
		if err := r.sqlite.Upsert(ctx, request); err != nil {
			r.chain.Logger.Warn("enrollment sqlite shadow write failed",
				zap.Int64("id", request.ID), zap.Error(err))
		}
	}
	if served != tier.File {
		if err := r.file.Upsert(request); err != nil {
			r.chain.Logger.Warn("enrollment file shadow write failed",
				zap.Int64("id", request.ID), zap.Error(err))
		}
	}
}
