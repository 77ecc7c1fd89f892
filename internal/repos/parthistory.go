package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type PartHistoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.PartHistory) (*types.PartHistory, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PartHistory, error)
	LatestForPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) (*types.PartHistory, error)
	PreviousForPart(ctx context.Context, tx *gorm.DB, partID, excludeID uuid.UUID) (*types.PartHistory, error)
	ListByBike(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID) ([]*types.PartHistory, error)
	ListByPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) ([]*types.PartHistory, error)
	CountForPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) (int64, error)
	UpdateDescriptive(ctx context.Context, tx *gorm.DB, row *types.PartHistory) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	AverageLifespanForProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (float64, error)
}

type partHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPartHistoryRepo(db *gorm.DB, baseLog *logger.Logger) PartHistoryRepo {
	return &partHistoryRepo{db: db, log: baseLog.With("repo", "PartHistoryRepo")}
}

func (r *partHistoryRepo) Create(ctx context.Context, tx *gorm.DB, row *types.PartHistory) (*types.PartHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = newFactID()
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// newFactID issues time-ordered ids (UUIDv7) so "created_at desc, id desc"
// keeps facts in true stack order even when two land on the same timestamp.
func newFactID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

func (r *partHistoryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PartHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.PartHistory
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

func (r *partHistoryRepo) LatestForPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) (*types.PartHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if partID == uuid.Nil {
		return nil, nil
	}
	var row types.PartHistory
	err := transaction.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("created_at desc, id desc").
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

// PreviousForPart returns the newest fact for the part other than
// excludeID, i.e. what the slot held before the excluded fact.
func (r *partHistoryRepo) PreviousForPart(ctx context.Context, tx *gorm.DB, partID, excludeID uuid.UUID) (*types.PartHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if partID == uuid.Nil {
		return nil, nil
	}
	var row types.PartHistory
	err := transaction.WithContext(ctx).
		Where("part_id = ? AND id <> ?", partID, excludeID).
		Order("created_at desc, id desc").
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

func (r *partHistoryRepo) ListByBike(ctx context.Context, tx *gorm.DB, bikeID uuid.UUID) ([]*types.PartHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.PartHistory
	if bikeID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("bike_id = ?", bikeID).
		Order("created_at desc, id desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *partHistoryRepo) ListByPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) ([]*types.PartHistory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.PartHistory
	if partID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("part_id = ?", partID).
		Order("created_at desc, id desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *partHistoryRepo) CountForPart(ctx context.Context, tx *gorm.DB, partID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if partID == uuid.Nil {
		return 0, nil
	}
	var n int64
	err := transaction.WithContext(ctx).
		Model(&types.PartHistory{}).
		Where("part_id = ?", partID).
		Count(&n).Error
	return n, err
}

// UpdateDescriptive writes identity columns only. The wear and odometer
// snapshots of a fact are frozen once written.
func (r *partHistoryRepo) UpdateDescriptive(ctx context.Context, tx *gorm.DB, row *types.PartHistory) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.PartHistory{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"product_id":        row.ProductID,
			"brand":             row.Brand,
			"model":             row.Model,
			"expected_lifespan": row.ExpectedLifespan,
			"attributes":        row.Attributes,
		}).Error
}

func (r *partHistoryRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.PartHistory{}).Error
}

// AverageLifespanForProduct averages the wear recorded against outgoing
// components of this catalog record. Zero-wear facts are excluded so
// repair-path rows do not drag the average down.
func (r *partHistoryRepo) AverageLifespanForProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if productID == uuid.Nil {
		return 0, nil
	}
	var avg *float64
	err := transaction.WithContext(ctx).
		Model(&types.PartHistory{}).
		Select("AVG(wear_at_replacement)").
		Where("prev_product_id = ? AND wear_at_replacement > 0", productID).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
