package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type ProductRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error)
	GetByTriple(ctx context.Context, tx *gorm.DB, category, brandNorm, modelNorm string) (*types.Product, error)
	UpsertInstallation(ctx context.Context, tx *gorm.DB, row *types.Product) error
	AddInstallations(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error
	UpdateAggregates(ctx context.Context, tx *gorm.DB, id uuid.UUID, avgRating float64, totalReviews int, avgLifespan float64) error
	ListByCategory(ctx context.Context, tx *gorm.DB, category string) ([]*types.Product, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

func (r *productRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Product
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *productRepo) GetByTriple(ctx context.Context, tx *gorm.DB, category, brandNorm, modelNorm string) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if category == "" {
		return nil, nil
	}
	var row types.Product
	err := transaction.WithContext(ctx).
		Where("category = ? AND brand_norm = ? AND model_norm = ?", category, brandNorm, modelNorm).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// UpsertInstallation is the one atomic upsert in the system: two concurrent
// installs of a brand-new triple must converge on a single record with its
// counter incremented, never two rows.
func (r *productRepo) UpsertInstallation(ctx context.Context, tx *gorm.DB, row *types.Product) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "category"}, {Name: "brand_norm"}, {Name: "model_norm"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_installations": gorm.Expr("product.total_installations + 1"),
				"updated_at":          time.Now().UTC(),
			}),
		}).
		Create(row).Error
}

func (r *productRepo) AddInstallations(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || delta == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", id).
		Update("total_installations", gorm.Expr("total_installations + ?", delta)).Error
}

func (r *productRepo) UpdateAggregates(ctx context.Context, tx *gorm.DB, id uuid.UUID, avgRating float64, totalReviews int, avgLifespan float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating":   avgRating,
			"total_reviews":    totalReviews,
			"average_lifespan": avgLifespan,
		}).Error
}

func (r *productRepo) ListByCategory(ctx context.Context, tx *gorm.DB, category string) ([]*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Product
	if category == "" {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("category = ?", category).
		Order("total_installations desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
