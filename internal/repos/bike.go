package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type BikeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Bike) (*types.Bike, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Bike, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Bike, error)
	GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Bike, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Bike, error)
	AddDistance(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta float64) error
	ListIDsAfter(ctx context.Context, tx *gorm.DB, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type bikeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBikeRepo(db *gorm.DB, baseLog *logger.Logger) BikeRepo {
	return &bikeRepo{db: db, log: baseLog.With("repo", "BikeRepo")}
}

// lockForUpdate applies FOR UPDATE where the dialect supports it. SQLite
// serializes writers on its own.
func lockForUpdate(q *gorm.DB) *gorm.DB {
	if q.Dialector.Name() == "postgres" {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *bikeRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Bike) (*types.Bike, error) {
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

func (r *bikeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Bike, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Bike
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

func (r *bikeRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Bike, error) {
	return r.getByIDForUser(ctx, tx, id, userID, false)
}

func (r *bikeRepo) GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Bike, error) {
	return r.getByIDForUser(ctx, tx, id, userID, true)
}

func (r *bikeRepo) getByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, locked bool) (*types.Bike, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	q := transaction.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID)
	if locked {
		q = lockForUpdate(q)
	}
	var row types.Bike
	if err := q.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *bikeRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Bike, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Bike
	if userID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bikeRepo) AddDistance(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Bike{}).
		Where("id = ?", id).
		Update("total_distance", gorm.Expr("total_distance + ?", delta)).Error
}

// ListIDsAfter pages through bike ids keyset-style for full re-evaluation
// sweeps.
func (r *bikeRepo) ListIDsAfter(ctx context.Context, tx *gorm.DB, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 200
	}
	ids := []uuid.UUID{}
	q := transaction.WithContext(ctx).
		Model(&types.Bike{}).
		Order("id asc").
		Limit(limit)
	if after != uuid.Nil {
		q = q.Where("id > ?", after)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
