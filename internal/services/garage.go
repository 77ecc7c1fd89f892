package services

import (
	"context"
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

type GarageService interface {
	// Detach moves a slot's occupant into the user's garage, keeping its
	// wear. The slot returns to empty without a replacement fact: the
	// component was relocated, not replaced, and the fact belongs to
	// whatever install fills the slot next.
	Detach(ctx context.Context, bikeID uuid.UUID, category catalog.Category) (*types.StoredPart, error)
	// InstallFromGarage puts a stored component onto a bike slot. The wear it
	// accumulated before detaching carries over; this is the one install path
	// that does not start at zero.
	InstallFromGarage(ctx context.Context, storedPartID, bikeID uuid.UUID) (*types.Part, error)
	ListGarage(ctx context.Context) ([]*types.StoredPart, error)
	Discard(ctx context.Context, storedPartID uuid.UUID) error
}

type garageService struct {
	db         *gorm.DB
	log        *logger.Logger
	bikeRepo   repos.BikeRepo
	partRepo   repos.PartRepo
	storedRepo repos.StoredPartRepo
	partSvc    PartService
	alertSvc   AlertService
}

func NewGarageService(db *gorm.DB, log *logger.Logger, bikeRepo repos.BikeRepo, partRepo repos.PartRepo, storedRepo repos.StoredPartRepo, partSvc PartService, alertSvc AlertService) GarageService {
	return &garageService{
		db:         db,
		log:        log.With("service", "GarageService"),
		bikeRepo:   bikeRepo,
		partRepo:   partRepo,
		storedRepo: storedRepo,
		partSvc:    partSvc,
		alertSvc:   alertSvc,
	}
}

func (s *garageService) Detach(ctx context.Context, bikeID uuid.UUID, category catalog.Category) (*types.StoredPart, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, apierr.NotFound("bike")
	}
	if !catalog.IsSlotCategory(category) {
		return nil, apierr.Validation("unknown part category %q", category)
	}

	var out *types.StoredPart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bike, err := s.bikeRepo.GetByIDForUserLocked(ctx, tx, bikeID, userID)
		if err != nil {
			return err
		}
		if bike == nil {
			return apierr.NotFound("bike")
		}
		part, err := s.partRepo.GetByBikeAndCategoryLocked(ctx, tx, bike.ID, string(category))
		if err != nil {
			return err
		}
		if part == nil || !part.Installed() {
			return apierr.InvalidState("slot %s has nothing installed to detach", category)
		}

		stored := &types.StoredPart{
			UserID:            userID,
			Category:          part.Category,
			Brand:             part.Brand,
			Model:             part.Model,
			ProductID:         part.ProductID,
			WearAccumulated:   part.WearAccumulated,
			ExpectedLifespan:  part.ExpectedLifespan,
			Attributes:        part.Attributes,
			RemovedFromBikeID: &bike.ID,
			RemovedAt:         time.Now().UTC(),
		}
		if out, err = s.storedRepo.Create(ctx, tx, stored); err != nil {
			return err
		}

		clearSlot(part)
		return s.partRepo.Save(ctx, tx, part)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *garageService) InstallFromGarage(ctx context.Context, storedPartID, bikeID uuid.UUID) (*types.Part, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, apierr.NotFound("stored part")
	}

	var out *types.Part
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.storedRepo.GetByIDForUserLocked(ctx, tx, storedPartID, userID)
		if err != nil {
			return err
		}
		if stored == nil {
			return apierr.NotFound("stored part")
		}
		bike, err := s.bikeRepo.GetByIDForUserLocked(ctx, tx, bikeID, userID)
		if err != nil {
			return err
		}
		if bike == nil {
			return apierr.NotFound("bike")
		}

		attrs, err := attrsFromJSON(stored.Attributes)
		if err != nil {
			return err
		}
		lifespan := stored.ExpectedLifespan
		spec := InstallSpec{
			Brand:            stored.Brand,
			Model:            stored.Model,
			ExpectedLifespan: &lifespan,
			Attributes:       attrs,
		}
		out, err = s.partSvc.ReplaceWithinTx(ctx, tx, bike, catalog.Category(stored.Category), spec, stored.WearAccumulated)
		if err != nil {
			return err
		}
		return s.storedRepo.Delete(ctx, tx, stored.ID)
	})
	if err != nil {
		return nil, err
	}
	if err := s.alertSvc.EvaluateBike(ctx, bikeID); err != nil {
		s.log.Warn("alert evaluation failed", "bike_id", bikeID.String(), "error", err)
	}
	return out, nil
}

func (s *garageService) ListGarage(ctx context.Context) ([]*types.StoredPart, error) {
	return s.storedRepo.ListByUser(ctx, nil, requestdata.UserID(ctx))
}

func (s *garageService) Discard(ctx context.Context, storedPartID uuid.UUID) error {
	userID := requestdata.UserID(ctx)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := s.storedRepo.GetByIDForUserLocked(ctx, tx, storedPartID, userID)
		if err != nil {
			return err
		}
		if stored == nil {
			return apierr.NotFound("stored part")
		}
		return s.storedRepo.Delete(ctx, tx, stored.ID)
	})
}
