package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/almanara-academy/courses-api/internal/models"
	"github.com/almanara-academy/courses-api/internal/tier"
)

// CategoryRepository is the tiered persistence gateway for categories:
// MySQL first, flat file second.
type CategoryRepository struct {
	sql   *categorySQLStore
	file  *categoryFileStore
	chain tier.Chain
}

func NewCategoryRepository(db *sqlx.DB, dataDir string, logger *zap.Logger, observer tier.Observer) *CategoryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryRepository{
		sql:   newCategorySQLStore(db, logger),
		file:  newCategoryFileStore(dataDir),
		chain: tier.Chain{Entity: "categories", Logger: logger, Observer: observer},
	}
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, tier.Tier, error) {
	return tier.Execute(ctx, r.chain, "list", []tier.Attempt[[]models.Category]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) ([]models.Category, error) {
			return r.sql.List(ctx)
		}},
		{Tier: tier.File, Run: func(ctx context.Context) ([]models.Category, error) {
			return r.file.List()
		}},
	})
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (models.Category, tier.Tier, error) {
	return tier.Execute(ctx, r.chain, "get", []tier.Attempt[models.Category]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (models.Category, error) {
			return haltNoRows(r.sql.GetByID(ctx, id))
		}},
		{Tier: tier.File, Run: func(ctx context.Context) (models.Category, error) {
			return haltNoRows(r.file.GetByID(id))
		}},
	})
}

func (r *CategoryRepository) ExistsByName(ctx context.Context, name, nameAr string, excludeID int64) (bool, tier.Tier, error) {
	return tier.Execute(ctx, r.chain, "exists", []tier.Attempt[bool]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (bool, error) {
			return r.sql.ExistsByName(ctx, name, nameAr, excludeID)
		}},
		{Tier: tier.File, Run: func(ctx context.Context) (bool, error) {
			return r.file.ExistsByName(name, nameAr, excludeID)
		}},
	})
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) (tier.Tier, error) {
	_, served, err := tier.Execute(ctx, r.chain, "insert", []tier.Attempt[struct{}]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.sql.Insert(ctx, category)
		}},
		{Tier: tier.File, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.file.Insert(category)
		}},
	})
	return served, err
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) (tier.Tier, error) {
	_, served, err := tier.Execute(ctx, r.chain, "update", []tier.Attempt[struct{}]{
		{Tier: tier.MySQL, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, haltNoRowsErr(r.sql.Update(ctx, category))
		}},
		{Tier: tier.File, Run: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, haltNoRowsErr(r.file.Update(category))
		}},
	})
	return served, err
}

// Delete removes the category and mirrors the removal into the flat-file
// shadow, matching the course gateway.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) (tier.Tier, error) {
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
			r.chain.Logger.Warn("category shadow delete failed",
				zap.Int64("id", id), zap.Error(mirrorErr))
		}
	}
	return served, err
}
