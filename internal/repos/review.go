package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type ReviewRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Review) (*types.Review, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Review, error)
	ListByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Review, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByHistoryID(ctx context.Context, tx *gorm.DB, historyID uuid.UUID) (int64, error)
	AggregateForProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, float64, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

// Upsert enforces one review per (user, attachment): a later submission for
// the same attachment overwrites rating/body/photo instead of duplicating.
// The partial unique indexes on review back this up; when two submissions
// race, the loser retries once and updates the winner's row.
func (r *reviewRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Review) (*types.Review, error) {
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
	attempt := func() error {
		q := transaction.WithContext(ctx).Where("user_id = ?", row.UserID)
		q = whereNullable(q, "product_id", row.ProductID)
		q = whereNullable(q, "part_id", row.PartID)
		q = whereNullable(q, "history_id", row.HistoryID)
		return q.
			Assign(map[string]interface{}{
				"rating":    row.Rating,
				"body":      row.Body,
				"photo_url": row.PhotoURL,
			}).
			FirstOrCreate(row).Error
	}
	err := attempt()
	if err != nil && isUniqueViolation(err) {
		err = attempt()
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

func whereNullable(q *gorm.DB, column string, id *uuid.UUID) *gorm.DB {
	if id == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *id)
}

func (r *reviewRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.Review
	err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
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

func (r *reviewRepo) ListByProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) ([]*types.Review, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Review
	if productID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reviewRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Review{}).Error
}

// DeleteByHistoryID removes reviews attached to a replacement fact that is
// being undone, so aggregates never count orphaned events.
func (r *reviewRepo) DeleteByHistoryID(ctx context.Context, tx *gorm.DB, historyID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if historyID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Where("history_id = ?", historyID).
		Delete(&types.Review{})
	return res.RowsAffected, res.Error
}

func (r *reviewRepo) AggregateForProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int64, float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if productID == uuid.Nil {
		return 0, 0, nil
	}
	var out struct {
		N   int64
		Avg *float64
	}
	err := transaction.WithContext(ctx).
		Model(&types.Review{}).
		Select("COUNT(*) as n, AVG(rating) as avg").
		Where("product_id = ?", productID).
		Scan(&out).Error
	if err != nil {
		return 0, 0, err
	}
	avg := 0.0
	if out.Avg != nil {
		avg = *out.Avg
	}
	return out.N, avg, nil
}
