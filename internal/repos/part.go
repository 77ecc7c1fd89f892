package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type PartRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Part) (*types.Part, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Part, error)
	GetByIDLocked(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Part, error)
	GetByBikeAndCategory(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, category string) (*types.Part, error)
	GetByBikeAndCategoryLocked(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, category string) (*types.Part, error)
	ListByBike(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID) ([]*types.Part, error)
	ListByBikeAndCategories(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, categories []string) ([]*types.Part, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.Part) error
	AccrueWear(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, delta float64, categories []string) (int64, error)
}

type partRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPartRepo(db *gorm.DB, baseLog *logger.Logger) PartRepo {
	return &partRepo{db: db, log: baseLog.With("repo", "PartRepo")}
}

func (r *partRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Part) (*types.Part, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *partRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Part, error) {
	return r.getByID(ctx, tx, id, false)
}

func (r *partRepo) GetByIDLocked(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Part, error) {
	return r.getByID(ctx, tx, id, true)
}

func (r *partRepo) getByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, locked bool) (*types.Part, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	q := transaction.WithContext(ctx).Where("id = ?", id)
	if locked {
		q = lockForUpdate(q)
	}
	var row types.Part
	if err := q.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *partRepo) GetByBikeAndCategory(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, category string) (*types.Part, error) {
	return r.getByBikeAndCategory(ctx, tx, bikeID, category, false)
}

func (r *partRepo) GetByBikeAndCategoryLocked(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, category string) (*types.Part, error) {
	return r.getByBikeAndCategory(ctx, tx, bikeID, category, true)
}

func (r *partRepo) getByBikeAndCategory(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, category string, locked bool) (*types.Part, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if bikeID == uuid.Nil || category == "" {
		return nil, nil
	}
	q := transaction.WithContext(ctx).Where("bike_id = ? AND category = ?", bikeID, category)
	if locked {
		q = lockForUpdate(q)
	}
	var row types.Part
	if err := q.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *partRepo) ListByBike(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID) ([]*types.Part, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Part
	if bikeID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("bike_id = ?", bikeID).
		Order("category asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *partRepo) ListByBikeAndCategories(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, categories []string) ([]*types.Part, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Part
	if bikeID == uuid.Nil || len(categories) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("bike_id = ? AND category IN ?", bikeID, categories).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *partRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Part) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).Save(row).Error
}

// AccrueWear bumps wear on every installed, distance-tracked slot of the
// bike in one statement so the row locks serialize against concurrent
// installs on the same slots.
func (r *partRepo) AccrueWear(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID, delta float64, categories []string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if bikeID == uuid.Nil || len(categories) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.Part{}).
		Where("bike_id = ? AND installed_at IS NOT NULL AND category IN ?", bikeID, categories).
		Update("wear_accumulated", gorm.Expr("wear_accumulated + ?", delta))
	return res.RowsAffected, res.Error
}
