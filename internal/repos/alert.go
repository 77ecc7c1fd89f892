package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/types"
)

type AlertRepo interface {
	CreateIfNoneOpen(ctx context.Context, tx *gorm.DB, row *types.Alert) (bool, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Alert, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) ([]*types.Alert, error)
	TransitionFromOpen(ctx context.Context, tx *gorm.DB, id uuid.UUID, toStatus string) (bool, error)
}

type alertRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAlertRepo(db *gorm.DB, baseLog *logger.Logger) AlertRepo {
	return &alertRepo{db: db, log: baseLog.With("repo", "AlertRepo")}
}

// CreateIfNoneOpen is the sole dedup mechanism for notifications: the
// partial unique index idx_alert_open_tuple rejects a second open row for
// the same (user, kind, part), and DO NOTHING turns that race into a no-op.
// Returns whether a row was actually created.
func (r *alertRepo) CreateIfNoneOpen(ctx context.Context, tx *gorm.DB, row *types.Alert) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.Status = types.AlertStatusOpen
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *alertRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Alert, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var row types.Alert
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

func (r *alertRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) ([]*types.Alert, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Alert
	if userID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at desc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// TransitionFromOpen moves an alert out of open in one guarded statement;
// the rule engine never touches a row once it left open, and neither does a
// second user action.
func (r *alertRepo) TransitionFromOpen(ctx context.Context, tx *gorm.DB, id uuid.UUID, toStatus string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	res := transaction.WithContext(ctx).
		Model(&types.Alert{}).
		Where("id = ? AND status = ?", id, types.AlertStatusOpen).
		Update("status", toStatus)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
