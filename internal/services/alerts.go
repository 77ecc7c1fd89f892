package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velotrace/velotrace-backend/internal/apierr"
	"github.com/velotrace/velotrace-backend/internal/catalog"
	"github.com/velotrace/velotrace-backend/internal/logger"
	"github.com/velotrace/velotrace-backend/internal/repos"
	"github.com/velotrace/velotrace-backend/internal/requestdata"
	"github.com/velotrace/velotrace-backend/internal/types"
)

const evaluateAllPageSize = 200

type AlertService interface {
	// EvaluateBike runs every rule against the bike's current slots. Safe to
	// call after any mutation; firing is deduplicated at the store level.
	EvaluateBike(ctx context.Context, bikeID uuid.UUID) error
	// EvaluateAll sweeps every bike, for the periodic re-check of
	// calendar-based rules that fire without any user write.
	EvaluateAll(ctx context.Context) error
	ListAlerts(ctx context.Context, status string) ([]*types.Alert, error)
	Acknowledge(ctx context.Context, alertID uuid.UUID) (*types.Alert, error)
	Dismiss(ctx context.Context, alertID uuid.UUID) (*types.Alert, error)
}

type alertService struct {
	db          *gorm.DB
	log         *logger.Logger
	bikeRepo    repos.BikeRepo
	partRepo    repos.PartRepo
	historyRepo repos.PartHistoryRepo
	alertRepo   repos.AlertRepo
	defaults    catalog.Defaults
	now         func() time.Time
}

func NewAlertService(db *gorm.DB, log *logger.Logger, bikeRepo repos.BikeRepo, partRepo repos.PartRepo, historyRepo repos.PartHistoryRepo, alertRepo repos.AlertRepo, defaults catalog.Defaults) AlertService {
	return &alertService{
		db:          db,
		log:         log.With("service", "AlertService"),
		bikeRepo:    bikeRepo,
		partRepo:    partRepo,
		historyRepo: historyRepo,
		alertRepo:   alertRepo,
		defaults:    defaults,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *alertService) EvaluateBike(ctx context.Context, bikeID uuid.UUID) error {
	bike, err := s.bikeRepo.GetByID(ctx, nil, bikeID)
	if err != nil {
		return err
	}
	if bike == nil {
		return nil
	}
	parts, err := s.partRepo.ListByBike(ctx, nil, bikeID)
	if err != nil {
		return err
	}
	for _, part := range parts {
		if err := s.evaluatePart(ctx, bike, part); err != nil {
			return err
		}
	}
	return nil
}

func (s *alertService) evaluatePart(ctx context.Context, bike *types.Bike, part *types.Part) error {
	category := catalog.Category(part.Category)

	if part.Installed() && catalog.DistanceTracked(category) && part.ExpectedLifespan > 0 {
		kind := wearStatus(part.WearAccumulated, part.ExpectedLifespan, s.defaults.NearLimitPercent)
		if kind != "" {
			pct := int(part.WearAccumulated / part.ExpectedLifespan * 100)
			msg := fmt.Sprintf("%s on %s is at %d%% of its expected lifespan", part.Category, bike.Name, pct)
			if err := s.fire(ctx, bike.UserID, kind, part.ID, msg); err != nil {
				return err
			}
		}
	}

	if kind := intervalKind(category); kind != "" {
		interval := s.defaults.ServiceIntervalDays(category)
		if interval <= 0 {
			return nil
		}
		// The newest replacement fact is the last service event; a slot that
		// was never serviced has no baseline to be overdue against.
		latest, err := s.historyRepo.LatestForPart(ctx, nil, part.ID)
		if err != nil {
			return err
		}
		if latest == nil {
			return nil
		}
		age := s.now().Sub(latest.CreatedAt)
		if age >= time.Duration(interval)*24*time.Hour {
			days := int(age.Hours() / 24)
			msg := fmt.Sprintf("%s on %s was last serviced %d days ago (interval %d days)", part.Category, bike.Name, days, interval)
			if err := s.fire(ctx, bike.UserID, kind, part.ID, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *alertService) fire(ctx context.Context, userID uuid.UUID, kind string, partID uuid.UUID, msg string) error {
	created, err := s.alertRepo.CreateIfNoneOpen(ctx, nil, &types.Alert{
		UserID:  userID,
		Kind:    kind,
		PartID:  partID,
		Message: msg,
	})
	if err != nil {
		return err
	}
	if created {
		s.log.Info("alert raised", "kind", kind, "part_id", partID.String())
	}
	return nil
}

func (s *alertService) EvaluateAll(ctx context.Context) error {
	after := uuid.Nil
	for {
		ids, err := s.bikeRepo.ListIDsAfter(ctx, nil, after, evaluateAllPageSize)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		for _, id := range ids {
			if err := s.EvaluateBike(ctx, id); err != nil {
				s.log.Warn("sweep: bike evaluation failed", "bike_id", id.String(), "error", err)
			}
		}
		after = ids[len(ids)-1]
	}
}

func (s *alertService) ListAlerts(ctx context.Context, status string) ([]*types.Alert, error) {
	userID := requestdata.UserID(ctx)
	if status != "" && status != types.AlertStatusOpen && status != types.AlertStatusAcknowledged && status != types.AlertStatusDismissed {
		return nil, apierr.Validation("unknown alert status %q", status)
	}
	return s.alertRepo.ListByUser(ctx, nil, userID, status)
}

func (s *alertService) Acknowledge(ctx context.Context, alertID uuid.UUID) (*types.Alert, error) {
	return s.transition(ctx, alertID, types.AlertStatusAcknowledged)
}

func (s *alertService) Dismiss(ctx context.Context, alertID uuid.UUID) (*types.Alert, error) {
	return s.transition(ctx, alertID, types.AlertStatusDismissed)
}

func (s *alertService) transition(ctx context.Context, alertID uuid.UUID, toStatus string) (*types.Alert, error) {
	userID := requestdata.UserID(ctx)
	row, err := s.alertRepo.GetByIDForUser(ctx, nil, alertID, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.NotFound("alert")
	}
	moved, err := s.alertRepo.TransitionFromOpen(ctx, nil, alertID, toStatus)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, apierr.InvalidState("alert is no longer open")
	}
	row.Status = toStatus
	return row, nil
}

// wearStatus classifies a wear reading against its lifespan. Worn-out wins
// over near-limit so a slot never carries both kinds at once.
func wearStatus(wear, lifespan float64, nearPercent int) string {
	if lifespan <= 0 {
		return ""
	}
	pct := wear / lifespan * 100
	if pct >= 100 {
		return types.AlertKindWearWornOut
	}
	if pct >= float64(nearPercent) {
		return types.AlertKindWearNearLimit
	}
	return ""
}

func intervalKind(c catalog.Category) string {
	switch catalog.Canonical(c) {
	case catalog.CategoryChainLube:
		return types.AlertKindLubeOverdue
	case catalog.CategorySealant:
		return types.AlertKindSealantOverdue
	case catalog.CategoryBrakeFluid:
		return types.AlertKindBrakeFluidOverdue
	default:
		return ""
	}
}
