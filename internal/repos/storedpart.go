package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type StoredPartRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.StoredPart) (*types.StoredPart, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.StoredPart, error)
	GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.StoredPart, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StoredPart, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type storedPartRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStoredPartRepo(db *gorm.DB, baseLog *logger.Logger) StoredPartRepo {
	return &storedPartRepo{db: db, log: baseLog.With("repo", "StoredPartRepo")}
}

func (r *storedPartRepo) Create(ctx context.Context, tx *gorm.DB, row *types.StoredPart) (*types.StoredPart, error) {
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

func (r *storedPartRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.StoredPart, error) {
	return r.getByIDForUser(ctx, tx, id, userID, false)
}

func (r *storedPartRepo) GetByIDForUserLocked(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.StoredPart, error) {
	return r.getByIDForUser(ctx, tx, id, userID, true)
}

func (r *storedPartRepo) getByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID, locked bool) (*types.StoredPart, error) {
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
	var row types.StoredPart
	if err := q.Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *storedPartRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StoredPart, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.StoredPart
	if userID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("removed_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *storedPartRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.StoredPart{}).Error
}
